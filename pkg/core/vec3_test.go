package core

import (
	"math"
	"testing"
)

func TestVec3_BasicOperations(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, 5, 6)

	sum := a.Add(b)
	if sum != NewVec3(5, 7, 9) {
		t.Errorf("Expected (5,7,9), got %+v", sum)
	}

	diff := b.Subtract(a)
	if diff != NewVec3(3, 3, 3) {
		t.Errorf("Expected (3,3,3), got %+v", diff)
	}

	scaled := a.Multiply(2)
	if scaled != NewVec3(2, 4, 6) {
		t.Errorf("Expected (2,4,6), got %+v", scaled)
	}

	if dot := a.Dot(b); dot != 32 {
		t.Errorf("Expected dot product 32, got %v", dot)
	}
}

func TestVec3_CrossProduct(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)

	cross := x.Cross(y)
	if cross != NewVec3(0, 0, 1) {
		t.Errorf("Expected x cross y = z, got %+v", cross)
	}

	// Anti-commutativity
	reversed := y.Cross(x)
	if reversed != NewVec3(0, 0, -1) {
		t.Errorf("Expected y cross x = -z, got %+v", reversed)
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 4, 0)
	n := v.Normalize()

	if math.Abs(n.Length()-1.0) > 1e-12 {
		t.Errorf("Expected unit length, got %v", n.Length())
	}
	if !n.IsUnitLength(1e-9) {
		t.Error("Expected IsUnitLength to report true for a normalized vector")
	}

	// Zero vector stays zero instead of producing NaN
	zero := NewVec3(0, 0, 0).Normalize()
	if !zero.IsZero() {
		t.Errorf("Expected zero vector to normalize to zero, got %+v", zero)
	}
}

func TestVec3_Clamp(t *testing.T) {
	v := NewVec3(-0.5, 0.5, 1.5)
	clamped := v.Clamp(0, 1)
	if clamped != NewVec3(0, 0.5, 1) {
		t.Errorf("Expected (0,0.5,1), got %+v", clamped)
	}
}

func TestRay_At(t *testing.T) {
	ray := NewRay(NewVec3(1, 0, 0), NewVec3(0, 2, 0))
	p := ray.At(0.5)
	if p != NewVec3(1, 1, 0) {
		t.Errorf("Expected (1,1,0), got %+v", p)
	}
}

func TestRay_ErrorOffset(t *testing.T) {
	ray := NewOffsetRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1), 1e-4)
	if ray.ErrorOffset != 1e-4 {
		t.Errorf("Expected error offset 1e-4, got %v", ray.ErrorOffset)
	}
	if NewRay(NewVec3(0, 0, 0), NewVec3(0, 0, 1)).ErrorOffset != 0 {
		t.Error("Expected default error offset 0")
	}
}
