package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestProfileRow_Complete(t *testing.T) {
	tests := []struct {
		name string
		row  ProfileRow
		want bool
	}{
		{
			name: "all fields present",
			row: ProfileRow{
				UserUID:         "uid",
				FullName:        strptr("Ivan Petrov"),
				Phone:           strptr("+79001234567"),
				IDCardURL:       strptr("https://cdn.campus.app/id/uid.jpg"),
				IsEmailVerified: true,
			},
			want: true,
		},
		{
			name: "missing full name",
			row: ProfileRow{
				Phone:           strptr("+79001234567"),
				IDCardURL:       strptr("https://cdn.campus.app/id/uid.jpg"),
				IsEmailVerified: true,
			},
			want: false,
		},
		{
			name: "missing phone",
			row: ProfileRow{
				FullName:        strptr("Ivan Petrov"),
				IDCardURL:       strptr("https://cdn.campus.app/id/uid.jpg"),
				IsEmailVerified: true,
			},
			want: false,
		},
		{
			name: "missing id card url",
			row: ProfileRow{
				FullName:        strptr("Ivan Petrov"),
				Phone:           strptr("+79001234567"),
				IsEmailVerified: true,
			},
			want: false,
		},
		{
			name: "email not verified",
			row: ProfileRow{
				FullName:  strptr("Ivan Petrov"),
				Phone:     strptr("+79001234567"),
				IDCardURL: strptr("https://cdn.campus.app/id/uid.jpg"),
			},
			want: false,
		},
		{
			name: "empty strings are not filled",
			row: ProfileRow{
				FullName:        strptr(""),
				Phone:           strptr("+79001234567"),
				IDCardURL:       strptr("https://cdn.campus.app/id/uid.jpg"),
				IsEmailVerified: true,
			},
			want: false,
		},
		{
			name: "empty row",
			row:  ProfileRow{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.row.Complete())
		})
	}
}
