package revision

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func longReply(prefix string) string {
	return prefix + strings.Repeat(" Day 1: 30 minutes of zone 2 cardio, then mobility work.", 15)
}

func TestClassify(t *testing.T) {
	c := NewClassifier(DefaultPolicy())

	tests := []struct {
		name     string
		message  string
		response string
		want     bool
	}{
		{
			name:     "change request with updated plan",
			message:  "please change my plan to more cardio",
			response: longReply("Here's the updated plan..."),
			want:     true,
		},
		{
			name:     "question never revises",
			message:  "what's my BMI?",
			response: longReply("Here's the updated plan..."),
			want:     false,
		},
		{
			name:     "intent but no plan phrase",
			message:  "can you modify the squats?",
			response: longReply("Sure, squats can be swapped for lunges."),
			want:     false,
		},
		{
			name:     "short reply is a clarification",
			message:  "change my workout",
			response: "Here's the updated plan: which days suit you?",
			want:     false,
		},
		{
			name:     "matching is case-insensitive",
			message:  "I want something DIFFERENT",
			response: longReply("ALTERNATIVE PLAN below."),
			want:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.message, tt.response))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(DefaultPolicy())
	msg := "update my meals"
	resp := longReply("Your new plan:")

	first := c.Classify(msg, resp)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.Classify(msg, resp))
	}
}

func TestClassifyLengthBoundary(t *testing.T) {
	c := NewClassifier(Policy{IntentWords: []string{"change"}, PlanPhrases: []string{"new plan"}, MinLength: 20})

	exact := "new plan" + strings.Repeat("x", 12)
	assert.Len(t, exact, 20)
	assert.False(t, c.Classify("change it", exact))
	assert.True(t, c.Classify("change it", exact+"x"))
}

func TestSummaryAndPreview(t *testing.T) {
	assert.Equal(t, "User requested: more cardio", Summary("  more cardio "))

	long := strings.Repeat("a", 250)
	s := Summary(long)
	assert.True(t, strings.HasSuffix(s, "..."))
	assert.Len(t, s, len("User requested: ")+200+3)

	assert.Equal(t, "short", Preview("short"))
	assert.Len(t, Preview(strings.Repeat("b", 400)), 153)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("é", 100) // 200 bytes
	out := truncate(s, 151)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.True(t, strings.HasPrefix(out, "é"))
	assert.Len(t, out, 150+3)
}
