package engine

import (
	"errors"
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/raceway/pkg/geom"
	"github.com/chazu/raceway/pkg/model"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Raceway Lisp source code before passing it
// to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: free-a -> free_a
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Builder state
// ---------------------------------------------------------------------------

// builder accumulates the document while builtins execute. One builder
// exists per evaluation; it is confined to that evaluation's goroutine.
type builder struct {
	doc      *model.Document
	warnings []EvalWarning
	anon     uint64
}

func newBuilder(def model.Defaults) *builder {
	return &builder{doc: model.NewWith(def)}
}

func (b *builder) warnf(id model.NodeID, format string, args ...interface{}) {
	b.warnings = append(b.warnings, EvalWarning{
		NodeID:  id,
		Message: fmt.Sprintf(format, args...),
	})
}

// nextAnonSuffix provides unique suffixes for anonymous nodes within one
// evaluation. Per-builder, so repeated evaluations stay deterministic.
func (b *builder) nextAnonSuffix() string {
	b.anon++
	return fmt.Sprintf("_anon_%d", b.anon)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpTrade wraps a model.TradeSpec so it can be passed between builtins.
type sexpTrade struct {
	spec model.TradeSpec
}

func (t *sexpTrade) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(trade :standard %q :size %q)", t.spec.Standard, t.spec.Size)
}
func (t *sexpTrade) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a model.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   model.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps an r3.Vec.
type sexpVec3 struct {
	vec r3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpOutcome wraps the result of a connect form for diagnostics.
type sexpOutcome struct {
	strategy string
	joints   int
}

func (o *sexpOutcome) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(connected :strategy %s :joints %d)", o.strategy, o.joints)
}
func (o *sexpOutcome) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value — treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_end) and plain strings ("end").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toEnd converts a keyword or string to a model.End.
func toEnd(s zygo.Sexp) (model.End, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return "", fmt.Errorf("expected end keyword (:start, :end): %w", err)
	}
	e := model.End(name)
	if !model.ValidEnds[e] {
		return "", fmt.Errorf("invalid end %q, expected start or end", name)
	}
	return e, nil
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (model.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return model.ZeroID, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts an r3.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (r3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return r3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toTrade extracts a TradeSpec from a sexpTrade.
func toTrade(s zygo.Sexp) (model.TradeSpec, error) {
	if t, ok := s.(*sexpTrade); ok {
		return t.spec, nil
	}
	return model.TradeSpec{}, fmt.Errorf("expected trade, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all Raceway DSL builtins into a zygomys
// environment. The builtins operate on the provided builder, populating
// its document during evaluation.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}

		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}

		return &sexpVec3{vec: r3.Vec{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (trade :standard "EMT" :size "20")
	// -----------------------------------------------------------------------
	env.AddFunction("trade", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		spec := model.TradeSpec{}

		if v, ok := pa.kw["standard"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("trade: standard: %w", err)
			}
			spec.Standard = s
		}
		if v, ok := pa.kw["size"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("trade: size: %w", err)
			}
			spec.Size = s
		}
		if v, ok := pa.kw["notes"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("trade: notes: %w", err)
			}
			spec.Notes = s
		}

		return &sexpTrade{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (defaults :tolerance 0.001 :diameter 25)
	// -----------------------------------------------------------------------
	env.AddFunction("defaults", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		if v, ok := pa.kw["tolerance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: tolerance: %w", err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("defaults: tolerance must be positive, got %g", f)
			}
			b.doc.Defaults.Tolerance = f
		}
		if v, ok := pa.kw["angular"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: angular: %w", err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("defaults: angular must be positive, got %g", f)
			}
			b.doc.Defaults.Angular = f
		}
		if v, ok := pa.kw["diameter"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("defaults: diameter: %w", err)
			}
			if f <= 0 {
				return zygo.SexpNull, fmt.Errorf("defaults: diameter must be positive, got %g", f)
			}
			b.doc.Defaults.Diameter = f
		}

		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (conduit :name "riser" :from (vec3 0 0 0) :to (vec3 0 0 3000)
	//          :diameter 20 :trade (trade :standard "EMT" :size "20"))
	// -----------------------------------------------------------------------
	env.AddFunction("conduit", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		runName := ""
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("conduit: name: %w", err)
			}
			runName = s
		}

		cd := model.ConduitData{Diameter: b.doc.Defaults.Diameter}

		v, ok := pa.kw["from"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("conduit: missing :from")
		}
		from, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("conduit: from: %w", err)
		}
		v, ok = pa.kw["to"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("conduit: missing :to")
		}
		to, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("conduit: to: %w", err)
		}
		cd.Run = geom.Segment{Start: from, End: to}

		if v, ok := pa.kw["diameter"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("conduit: diameter: %w", err)
			}
			cd.Diameter = f
		}
		if v, ok := pa.kw["trade"]; ok {
			t, err := toTrade(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("conduit: trade: %w", err)
			}
			cd.Trade = t
		}

		idPath := "conduit/" + runName
		if runName == "" {
			idPath = "conduit/" + b.nextAnonSuffix()
		}
		id := model.NewNodeID(idPath)

		node := &model.Node{
			ID:          id,
			Kind:        model.NodeConduit,
			Name:        runName,
			ContentHash: model.HashData(cd),
			Data:        cd,
		}
		b.doc.AddNode(node)
		b.doc.AddRoot(id)

		return &sexpNodeRef{id: id, name: runName}, nil
	})

	// -----------------------------------------------------------------------
	// (run "riser")
	// -----------------------------------------------------------------------
	env.AddFunction("run", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("run requires a name argument")
		}

		runName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("run: name: %w", err)
		}

		n := b.doc.Lookup(runName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("run: no run named %q", runName)
		}

		return &sexpNodeRef{id: n.ID, name: runName}, nil
	})

	// -----------------------------------------------------------------------
	// (connect :a "riser" :b "branch" :free-a :end :free-b :start)
	//
	// Runs the routing planner for the two runs and applies the plan:
	// both runs are trimmed, a jog or kick run is inserted when needed,
	// and fitting nodes join the ends. Connecting an already-joined pair
	// is a warning, not an error, so re-evaluating a script stays
	// idempotent.
	// -----------------------------------------------------------------------
	env.AddFunction("connect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		resolve := func(key string) (model.NodeID, error) {
			v, ok := pa.kw[key]
			if !ok {
				return model.ZeroID, fmt.Errorf("connect: missing :%s", key)
			}
			// Accept either a run name or a node reference.
			if s, err := toString(v); err == nil && !strings.HasPrefix(s, kwPrefix) {
				n := b.doc.Lookup(s)
				if n == nil {
					return model.ZeroID, fmt.Errorf("connect: no run named %q", s)
				}
				return n.ID, nil
			}
			return toNodeRef(v)
		}

		aID, err := resolve("a")
		if err != nil {
			return zygo.SexpNull, err
		}
		bID, err := resolve("b")
		if err != nil {
			return zygo.SexpNull, err
		}

		freeA := model.EndEnd
		if v, ok := pa.kw["free-a"]; ok {
			freeA, err = toEnd(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connect: free-a: %w", err)
			}
		}
		freeB := model.EndStart
		if v, ok := pa.kw["free-b"]; ok {
			freeB, err = toEnd(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("connect: free-b: %w", err)
			}
		}

		next, out, err := model.ApplyConnection(b.doc, aID, bID, freeA, freeB)
		if err != nil {
			if errors.Is(err, model.ErrAlreadyConnected) {
				b.warnf(aID, "connect: %v; skipping", err)
				return &sexpOutcome{strategy: "noop", joints: 0}, nil
			}
			return zygo.SexpNull, fmt.Errorf("connect: %w", err)
		}
		b.doc = next

		return &sexpOutcome{
			strategy: out.Strategy.String(),
			joints:   len(out.Plan.Joints),
		}, nil
	})

	// -----------------------------------------------------------------------
	// (assembly "garage-feed" (run "riser") (run "branch") ...)
	// -----------------------------------------------------------------------
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}

		asmName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}

		var children []model.NodeID
		for i := 1; i < len(args); i++ {
			ref, ok := args[i].(*sexpNodeRef)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("assembly: child %d: expected node reference, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
			children = append(children, ref.id)
		}

		id := model.NewNodeID("assembly/" + asmName)
		node := &model.Node{
			ID:          id,
			Kind:        model.NodeGroup,
			Name:        asmName,
			ContentHash: model.HashData(model.GroupData{}),
			Children:    children,
			Data:        model.GroupData{},
		}
		b.doc.AddNode(node)
		b.doc.AddRoot(id)

		return &sexpNodeRef{id: id, name: asmName}, nil
	})
}
