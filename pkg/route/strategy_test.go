package route

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestCanApply(t *testing.T) {
	tol := DefaultTolerance()
	tests := []struct {
		name string
		k    StrategyKind
		c    Classification
		want bool
	}{
		{"direct join intersecting", DirectJoin, Classification{Relationship: Intersecting}, true},
		{"direct join collinear", DirectJoin, Classification{Relationship: Parallel, Offset: 0}, true},
		{"direct join offset parallel", DirectJoin, Classification{Relationship: Parallel, Offset: 5}, false},
		{"direct join skew", DirectJoin, Classification{Relationship: Skew, Offset: 3}, false},
		{"parallel offset", ParallelOffset, Classification{Relationship: Parallel, Offset: 5}, true},
		{"parallel offset collinear", ParallelOffset, Classification{Relationship: Parallel, Offset: 0}, false},
		{"parallel offset intersecting", ParallelOffset, Classification{Relationship: Intersecting}, false},
		{"skew kick", SkewKick, Classification{Relationship: Skew, Offset: 3}, true},
		{"skew kick parallel", SkewKick, Classification{Relationship: Parallel, Offset: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.k.CanApply(tt.c, tol); got != tt.want {
				t.Errorf("CanApply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanConnectionInapplicable(t *testing.T) {
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(0, 5, 0, 10, 5, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// Parallel pair with offset: DirectJoin cannot apply.
	_, err = PlanConnection(DirectJoin, a, b, c, a.End, b.End, tol)
	if !errors.Is(err, ErrInapplicableStrategy) {
		t.Fatalf("err = %v, want ErrInapplicableStrategy", err)
	}
}

func TestPlanParallelOffset(t *testing.T) {
	// A along X at y=0, free at (10,0,0). B along X at y=5, free at (10,5,0).
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(20, 5, 0, 10, 5, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	plan, err := PlanConnection(ParallelOffset, a, b, c, a.End, b.End, tol)
	if err != nil {
		t.Fatalf("PlanConnection failed: %v", err)
	}

	// Jog from the projection foot (10,0,0) to b's free end (10,5,0).
	if len(plan.Intermediates) != 1 {
		t.Fatalf("intermediates = %d, want 1", len(plan.Intermediates))
	}
	jog := plan.Intermediates[0]
	vecNear(t, jog.Start, r3.Vec{X: 10}, "jog start")
	vecNear(t, jog.End, r3.Vec{X: 10, Y: 5}, "jog end")
	if got := jog.Length(); math.Abs(got-5) > 1e-9 {
		t.Errorf("jog length = %g, want 5", got)
	}

	// Runs oriented fixed -> joint.
	vecNear(t, plan.RunA.Start, r3.Vec{}, "run a fixed end")
	vecNear(t, plan.RunA.End, r3.Vec{X: 10}, "run a joint end")
	vecNear(t, plan.RunB.Start, r3.Vec{X: 20, Y: 5}, "run b fixed end")
	vecNear(t, plan.RunB.End, r3.Vec{X: 10, Y: 5}, "run b joint end")

	// Two joints ordered from the A side.
	if len(plan.Joints) != 2 {
		t.Fatalf("joints = %d, want 2", len(plan.Joints))
	}
	vecNear(t, plan.Joints[0].At, r3.Vec{X: 10}, "joint 0")
	vecNear(t, plan.Joints[1].At, r3.Vec{X: 10, Y: 5}, "joint 1")
	if plan.Joints[0].A != (EndRef{Role: RoleRunA, Side: SideEnd}) {
		t.Errorf("joint 0 A ref = %+v", plan.Joints[0].A)
	}
	if plan.Joints[0].B != (EndRef{Role: RoleBridge, Side: SideStart}) {
		t.Errorf("joint 0 B ref = %+v", plan.Joints[0].B)
	}
	if plan.Joints[1].A != (EndRef{Role: RoleBridge, Side: SideEnd}) {
		t.Errorf("joint 1 A ref = %+v", plan.Joints[1].A)
	}
	if plan.Joints[1].B != (EndRef{Role: RoleRunB, Side: SideEnd}) {
		t.Errorf("joint 1 B ref = %+v", plan.Joints[1].B)
	}
}

func TestPlanParallelOffsetExtendsShortRun(t *testing.T) {
	// A's free end is short of the projection foot; the plan extends it.
	a := seg(0, 0, 0, 6, 0, 0)
	b := seg(20, 5, 0, 10, 5, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	plan, err := PlanConnection(ParallelOffset, a, b, c, a.End, b.End, tol)
	if err != nil {
		t.Fatalf("PlanConnection failed: %v", err)
	}
	vecNear(t, plan.RunA.End, r3.Vec{X: 10}, "extended run a end")
}

func TestPlanDirectJoinIntersecting(t *testing.T) {
	// Perpendicular runs whose lines cross at (10, 0, 0).
	a := seg(0, 0, 0, 8, 0, 0)
	b := seg(10, 9, 0, 10, 1, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	plan, err := PlanConnection(DirectJoin, a, b, c, a.End, b.End, tol)
	if err != nil {
		t.Fatalf("PlanConnection failed: %v", err)
	}

	if len(plan.Intermediates) != 0 {
		t.Errorf("intermediates = %d, want 0", len(plan.Intermediates))
	}
	if len(plan.Joints) != 1 {
		t.Fatalf("joints = %d, want 1", len(plan.Joints))
	}
	vecNear(t, plan.Joints[0].At, r3.Vec{X: 10}, "joint")

	// Both runs trimmed (here: extended) to the joint, keeping the far ends.
	vecNear(t, plan.RunA.Start, r3.Vec{}, "run a fixed end")
	vecNear(t, plan.RunA.End, r3.Vec{X: 10}, "run a joint end")
	vecNear(t, plan.RunB.Start, r3.Vec{X: 10, Y: 9}, "run b fixed end")
	vecNear(t, plan.RunB.End, r3.Vec{X: 10}, "run b joint end")
}

func TestPlanDirectJoinCollinear(t *testing.T) {
	// Collinear runs with a gap; the joint lands midway between the free
	// ends at (15, 0, 0).
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(30, 0, 0, 20, 0, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got := SelectStrategy(c, tol); got != DirectJoin {
		t.Fatalf("strategy = %v, want direct join for collinear pair", got)
	}
	plan, err := PlanConnection(DirectJoin, a, b, c, a.End, b.End, tol)
	if err != nil {
		t.Fatalf("PlanConnection failed: %v", err)
	}

	if len(plan.Joints) != 1 {
		t.Fatalf("joints = %d, want 1", len(plan.Joints))
	}
	vecNear(t, plan.Joints[0].At, r3.Vec{X: 15}, "joint")
	vecNear(t, plan.RunA.End, r3.Vec{X: 15}, "run a joint end")
	vecNear(t, plan.RunB.End, r3.Vec{X: 15}, "run b joint end")
}

func TestPlanDirectJoinAmbiguousEndpoint(t *testing.T) {
	// Joint equidistant from both of a's endpoints: no retained end.
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(5, 9, 0, 5, 1, 0) // crosses a's line at (5, 0, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	_, err = PlanConnection(DirectJoin, a, b, c, a.End, b.End, tol)
	if !errors.Is(err, ErrAmbiguousEndpoint) {
		t.Fatalf("err = %v, want ErrAmbiguousEndpoint", err)
	}
}

func TestPlanSkewKick(t *testing.T) {
	// A along X, B along Z through (5, 3, 0): kick between (5,0,0) and
	// (5,3,0), length 3.
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(5, 3, 10, 5, 3, 1)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	plan, err := PlanConnection(SkewKick, a, b, c, a.End, b.End, tol)
	if err != nil {
		t.Fatalf("PlanConnection failed: %v", err)
	}

	if len(plan.Intermediates) != 1 {
		t.Fatalf("intermediates = %d, want 1", len(plan.Intermediates))
	}
	kick := plan.Intermediates[0]
	vecNear(t, kick.Start, r3.Vec{X: 5}, "kick start")
	vecNear(t, kick.End, r3.Vec{X: 5, Y: 3}, "kick end")
	if got := kick.Length(); math.Abs(got-3) > 1e-6 {
		t.Errorf("kick length = %g, want 3", got)
	}

	// Both runs trimmed to the closest points, fixed ends retained.
	vecNear(t, plan.RunA.Start, r3.Vec{}, "run a fixed end")
	vecNear(t, plan.RunA.End, r3.Vec{X: 5}, "run a joint end")
	vecNear(t, plan.RunB.Start, r3.Vec{X: 5, Y: 3, Z: 10}, "run b fixed end")
	vecNear(t, plan.RunB.End, r3.Vec{X: 5, Y: 3}, "run b joint end")

	if len(plan.Joints) != 2 {
		t.Fatalf("joints = %d, want 2", len(plan.Joints))
	}
	vecNear(t, plan.Joints[0].At, r3.Vec{X: 5}, "joint 0")
	vecNear(t, plan.Joints[1].At, r3.Vec{X: 5, Y: 3}, "joint 1")
}

func TestPlanFreeEndMismatch(t *testing.T) {
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(5, 3, 10, 5, 3, 1)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// A point that is not an endpoint of run a.
	_, err = PlanConnection(SkewKick, a, b, c, r3.Vec{X: 5}, b.End, tol)
	if !errors.Is(err, ErrFreeEndMismatch) {
		t.Fatalf("err = %v, want ErrFreeEndMismatch", err)
	}
}

func TestPlanDirectJoinFreeEndMismatch(t *testing.T) {
	a := seg(0, 0, 0, 10, 0, 0)
	b := seg(5, -5, 0, 5, 5, 0)
	tol := DefaultTolerance()

	c, err := Analyze(a, b, tol)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if c.Relationship != Intersecting {
		t.Fatalf("relationship = %v, want Intersecting", c.Relationship)
	}

	_, err = PlanConnection(DirectJoin, a, b, c, r3.Vec{X: 3, Y: 3, Z: 3}, b.End, tol)
	if !errors.Is(err, ErrFreeEndMismatch) {
		t.Fatalf("run a err = %v, want ErrFreeEndMismatch", err)
	}
	_, err = PlanConnection(DirectJoin, a, b, c, a.End, r3.Vec{Y: 99}, tol)
	if !errors.Is(err, ErrFreeEndMismatch) {
		t.Fatalf("run b err = %v, want ErrFreeEndMismatch", err)
	}
}

func TestStrategyKindString(t *testing.T) {
	tests := []struct {
		k    StrategyKind
		want string
	}{
		{DirectJoin, "direct-join"},
		{ParallelOffset, "parallel-offset"},
		{SkewKick, "skew-kick"},
		{StrategyKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.k), got, tt.want)
		}
	}
}
