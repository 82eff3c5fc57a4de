package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Fatalf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Fatalf("Clamp(-3,0,10) = %d", got)
	}
	if got := Clamp(11.5, 0.0, 10.0); got != 10.0 {
		t.Fatalf("Clamp(11.5,0,10) = %v", got)
	}
	if got := Clamp(5, 10, 0); got != 5 { // swapped bounds
		t.Fatalf("Clamp(5,10,0) = %d", got)
	}
}

func TestBetween(t *testing.T) {
	if !Between(0.0, -40.0, 85.0) {
		t.Fatal("Between(0,-40,85) = false")
	}
	if Between(90.0, -40.0, 85.0) {
		t.Fatal("Between(90,-40,85) = true")
	}
	if !Between(5, 10, 0) {
		t.Fatal("Between(5,10,0) = false")
	}
}
