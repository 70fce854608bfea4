package textnorm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

func TestComment_ComponeNFC(t *testing.T) {
	decomposed := "cafe\u0301 pequen\u0303o"
	assert.Equal(t, "caf\u00e9 peque\u00f1o", textnorm.Comment(decomposed))
}

func TestComment_RecortaYEliminaControl(t *testing.T) {
	assert.Equal(t, "merma por daño", textnorm.Comment("  merma por\x00 daño  "))
	assert.Equal(t, "", textnorm.Comment("   "))
}

func TestComment_Trunca(t *testing.T) {
	long := strings.Repeat("ñ", textnorm.MaxCommentLength+20)
	got := textnorm.Comment(long)
	assert.Equal(t, textnorm.MaxCommentLength, len([]rune(got)))
}
