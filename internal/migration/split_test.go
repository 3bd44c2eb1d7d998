package migration

import (
	"reflect"
	"testing"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Statement
	}{
		{
			name:    "empty",
			content: "",
			want:    nil,
		},
		{
			name:    "only separators and whitespace",
			content: " ;\n;\t; ",
			want:    nil,
		},
		{
			name:    "empty fragments are dropped",
			content: "create table a;; create table b ;",
			want:    []Statement{"create table a", "create table b"},
		},
		{
			name:    "no trailing separator",
			content: "CREATE TABLE t (id int PRIMARY KEY)",
			want:    []Statement{"CREATE TABLE t (id int PRIMARY KEY)"},
		},
		{
			name: "multi-line statements keep inner newlines",
			content: "CREATE TABLE users (\n  id uuid PRIMARY KEY,\n  name text\n);\n\n" +
				"CREATE INDEX users_name ON users (name);\n",
			want: []Statement{
				"CREATE TABLE users (\n  id uuid PRIMARY KEY,\n  name text\n)",
				"CREATE INDEX users_name ON users (name)",
			},
		},
		{
			name:    "comment only template is one statement",
			content: "-- create users\n\n-- Write your migration here",
			want:    []Statement{"-- create users\n\n-- Write your migration here"},
		},
		{
			name:    "separator inside a literal still splits",
			content: "INSERT INTO t (v) VALUES ('a;b');",
			want:    []Statement{"INSERT INTO t (v) VALUES ('a", "b')"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
