// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package etag

import "testing"

func TestOfIsStable(t *testing.T) {
	t.Parallel()

	type doc struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	first, err := Of(doc{A: "x", B: 1})
	if err != nil {
		t.Fatal(err)
	}
	second, _ := Of(doc{A: "x", B: 1})
	other, _ := Of(doc{A: "x", B: 2})

	if first != second {
		t.Fatalf("same value hashed differently: %s vs %s", first, second)
	}
	if first == other {
		t.Fatal("different values share an etag")
	}
	if first[:3] != `W/"` || first[len(first)-1] != '"' {
		t.Fatalf("not a quoted weak etag: %s", first)
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	tag := FromBytes([]byte("body"))
	strong := tag[2:]

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"empty", "", false},
		{"exact", tag, true},
		{"strong form", strong, true},
		{"wildcard", "*", true},
		{"list", `"nope", ` + tag, true},
		{"other", `W/"other"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Matches(tt.header, tag); got != tt.want {
				t.Fatalf("Matches(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}
