package linecount_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/docgap/pkg/linecount"
)

func TestSyntaxFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"crypto/dh/dh_check.c", linecount.CStyle.Name},
		{"include/openssl/dh.h", linecount.CStyle.Name},
		{"src/main.go", linecount.CStyle.Name},
		{"tools/run.py", linecount.HashStyle.Name},
		{"Makefile", linecount.HashStyle.Name},
		{"scripts/build.sh", linecount.HashStyle.Name},
		{"init.lua", linecount.LuaStyle.Name},
		{"Main.hs", linecount.HaskellStyle.Name},
		{"no_extension_at_all", linecount.CStyle.Name},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, linecount.SyntaxFor(tt.path).Name)
		})
	}
}
