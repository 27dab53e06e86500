package schedule

import (
	"errors"
	"reflect"
	"testing"
)

func validDraft() Draft {
	return Draft{
		Name:        "Morning calisthenics",
		Type:        TypeWorkout,
		Date:        "2024-06-10",
		Time:        "06:00",
		Description: "Pull-ups and dips",
	}
}

func fieldsOf(err error) []string {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Field)
	}
	return out
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *Draft)
		want   []string
	}{
		{"valid", func(d *Draft) {}, nil},
		{"blank name", func(d *Draft) { d.Name = "   " }, []string{"name"}},
		{"blank date", func(d *Draft) { d.Date = "" }, []string{"date"}},
		{"blank time", func(d *Draft) { d.Time = " " }, []string{"time"}},
		{"blank description", func(d *Draft) { d.Description = "\t" }, []string{"description"}},
		{"bad date", func(d *Draft) { d.Date = "06/10/2024" }, []string{"date"}},
		{"bad time", func(d *Draft) { d.Time = "6:00" }, []string{"time"}},
		{"bad type", func(d *Draft) { d.Type = "Party" }, []string{"type"}},
		{"negative cap", func(d *Draft) { d.MaxRSVPs = -1 }, []string{"maxRSVPs"}},
		{"everything blank", func(d *Draft) { *d = Draft{} }, []string{"name", "date", "time", "description"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.modify(&d)
			err := d.Normalize().Validate()
			if got := fieldsOf(err); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate() fields = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestNormalizeDefaultsType(t *testing.T) {
	d := Draft{Name: " x "}.Normalize()
	if d.Type != TypeWorkout || d.Name != "x" {
		t.Errorf("Normalize() = %+v", d)
	}
}

func TestPatchValidate(t *testing.T) {
	blank := " "
	name := "Evening run"
	badType := Type("Party")
	negative := -2
	tests := []struct {
		name  string
		patch Patch
		want  []string
	}{
		{"empty", Patch{}, []string{"patch"}},
		{"rename", Patch{Name: &name}, nil},
		{"clear name", Patch{Name: &blank}, []string{"name"}},
		{"clear details allowed", Patch{AdditionalDetails: &blank}, nil},
		{"bad type", Patch{Type: &badType}, []string{"type"}},
		{"negative cap", Patch{MaxRSVPs: &negative}, []string{"maxRSVPs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Normalize().Validate()
			if got := fieldsOf(err); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Validate() fields = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestPatchApply(t *testing.T) {
	name := "Renamed"
	limit := 10
	e := Event{Name: "Old", Description: "kept", MaxRSVPs: 2}
	got := Patch{Name: &name, MaxRSVPs: &limit}.Apply(e)
	want := Event{Name: "Renamed", Description: "kept", MaxRSVPs: 10}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Apply() = %+v, want %+v", got, want)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"Workout", TypeWorkout, false},
		{"event", TypeEvent, false},
		{" EVENT ", TypeEvent, false},
		{"class", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseType(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}
