package cpsw

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		segs    int
		wantErr error
	}{
		{input: "/mmio/Bay0/Ch[3]/Reg", want: "/mmio/Bay0/Ch[3]/Reg", segs: 4},
		{input: "mmio/Reg", want: "/mmio/Reg", segs: 2},
		{input: "  /a[0]  ", want: "/a[0]", segs: 1},
		{input: "", wantErr: ErrEmptyPath},
		{input: "/", wantErr: ErrEmptyPath},
		{input: "/a//b", wantErr: ErrEmptyPath},
		{input: "/a/[2]", wantErr: ErrInvalidPath},
		{input: "/a/b[x]", wantErr: ErrInvalidPath},
		{input: "/a/b[-1]", wantErr: ErrInvalidPath},
		{input: "/a/b]", wantErr: ErrInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePath(%q) error = %v", tt.input, err)
			}
			if p.String() != tt.want {
				t.Errorf("String() = %q, want %q", p.String(), tt.want)
			}
			if p.Len() != tt.segs {
				t.Errorf("Len() = %d, want %d", p.Len(), tt.segs)
			}
		})
	}
}

func TestPathImmutable(t *testing.T) {
	base := NewPath(Segment{Name: "mmio", Index: NoIndex}).Child("Hub")

	// Branching twice from the same parent must not alias.
	a := base.Child("A")
	b := base.ChildAt("B", 2)

	if a.String() != "/mmio/Hub/A" {
		t.Errorf("a = %q", a.String())
	}
	if b.String() != "/mmio/Hub/B[2]" {
		t.Errorf("b = %q", b.String())
	}
	if base.String() != "/mmio/Hub" {
		t.Errorf("base = %q, want unchanged", base.String())
	}

	segs := a.Segments()
	segs[0].Name = "changed"
	if a.Segment(0).Name != "mmio" {
		t.Error("Segments() returned shared storage")
	}
}

func TestPathUpAndTail(t *testing.T) {
	p, err := ParsePath("/mmio/Ch[3]/Reg")
	if err != nil {
		t.Fatal(err)
	}

	tail, ok := p.Tail()
	if !ok || tail.Name != "Reg" || tail.HasIndex() {
		t.Errorf("Tail() = %+v, %v", tail, ok)
	}

	up := p.Up()
	tail, _ = up.Tail()
	if tail.Name != "Ch" || tail.Index != 3 || tail.IndexString() != "3" {
		t.Errorf("Up().Tail() = %+v", tail)
	}
	if !up.Up().Up().IsEmpty() {
		t.Error("expected empty path after three Up() calls")
	}
	if !(Path{}).Up().IsEmpty() {
		t.Error("Up() of empty path must stay empty")
	}
	if _, ok := (Path{}).Tail(); ok {
		t.Error("Tail() of empty path reported ok")
	}
	if (Path{}).String() != "/" {
		t.Errorf("empty String() = %q", (Path{}).String())
	}
}

func TestPathJoinEqual(t *testing.T) {
	a, _ := ParsePath("/mmio/Hub")
	rel, _ := ParsePath("Sub[1]/Reg")
	want, _ := ParsePath("/mmio/Hub/Sub[1]/Reg")

	if got := a.Join(rel); !got.Equal(want) {
		t.Errorf("Join() = %s, want %s", got, want)
	}
	if a.Equal(want) {
		t.Error("paths of different length compare equal")
	}
}
