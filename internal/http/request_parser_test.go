package http

import (
	"errors"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"powerbill/internal/core"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    core.Category
		wantErr bool
	}{
		{"", core.Domestic, false},
		{"1", core.Domestic, false},
		{"2", core.Commercial, false},
		{"99", core.Domestic, false},
		{"COMMERCIAL", core.Commercial, false},
		{" domestic ", core.Domestic, false},
		{"industrial", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCategory(tt.in)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidCategory) {
					t.Fatalf("err = %v, want ErrInvalidCategory", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseCategory(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestRequestBodyParser_GetInts(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []int
		wantErr bool
	}{
		{"json array", `{"units":[1,2,3]}`, []int{1, 2, 3}, false},
		{"json string", `{"units":"4, 5"}`, []int{4, 5}, false},
		{"form", "units=6,7", []int{6, 7}, false},
		{"missing", `{}`, []int{}, false},
		{"not a number", `{"units":[1.5]}`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			p := NewRequestBodyParser(req)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got, err := p.GetInts("units")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GetInts = %v, want %v", got, tt.want)
			}
		})
	}
}
