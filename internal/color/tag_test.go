package color

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForTag_Deterministic(t *testing.T) {
	assert.Equal(t, ForTag("transformers"), ForTag("transformers"))
}

func TestForTag_NormalizesBeforeHashing(t *testing.T) {
	assert.Equal(t, ForTag("Slow Burn"), ForTag("slow burn"))
}

func TestForTag_ProducesHexColor(t *testing.T) {
	hexColor := regexp.MustCompile(`^#[0-9A-F]{6}$`)
	for _, name := range []string{"transformers", "classics", "to-read", "nlp"} {
		assert.Regexp(t, hexColor, ForTag(name))
	}
}
