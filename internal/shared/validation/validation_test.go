package validation

import (
	"strings"
	"testing"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin delivery_person"`
}

type point struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

func ptr(f float64) *float64 { return &f }

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		in        interface{}
		wantField string
		wantMsg   string
	}{
		{"valid", signup{Email: "a@b.co", Password: "secret"}, "", ""},
		{"missing email", signup{Password: "secret"}, "email", "is required"},
		{"bad email", signup{Email: "nope", Password: "secret"}, "email", "must be a valid email address"},
		{"short password", signup{Email: "a@b.co", Password: "123"}, "password", "must be at least 6 characters"},
		{"bad role", signup{Email: "a@b.co", Password: "secret", Role: "root"}, "role", "must be one of: admin, delivery_person"},
		{"valid point", point{Latitude: ptr(-6.2), Longitude: ptr(106.8)}, "", ""},
		{"nil point", point{}, "", ""},
		{"latitude out of range", point{Latitude: ptr(91)}, "latitude", "must be between -90 and 90"},
		{"longitude out of range", point{Longitude: ptr(-181)}, "longitude", "must be between -180 and 180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Struct() = nil, want error on %s", tt.wantField)
			}
			if err.Field != tt.wantField || err.Message != tt.wantMsg {
				t.Errorf("Struct() = %q %q, want %q %q", err.Field, err.Message, tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestStructCollectsAllFailures(t *testing.T) {
	err := Struct(signup{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.All) != 2 {
		t.Errorf("len(All) = %d, want 2", len(err.All))
	}
	if !strings.Contains(err.Error(), "password is required") {
		t.Errorf("Error() = %q, want mention of password", err.Error())
	}
}
