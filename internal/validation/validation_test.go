package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// simpleProse builds n short declarative sentences that score as easy
// reading.
func simpleProse(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("The cat sat on the mat and it was glad. ")
	}
	return b.String()
}

func TestValidate_PassesOnGoodBrief(t *testing.T) {
	// 10 words per sentence, 30 sentences = 300 words
	text := simpleProse(30)
	report := Validate(text, []string{"en.wikipedia.org", "a.example", "b.example"})

	assert.Equal(t, 300, report.WordCount)
	assert.Equal(t, 3, report.DomainCount)
	assert.True(t, report.WordsOK)
	assert.True(t, report.DomainsOK)
	assert.True(t, report.ReadabilityOK)
	assert.True(t, report.Passed())
}

func TestValidate_WordCountBand(t *testing.T) {
	short := Validate(simpleProse(10), []string{"a", "b", "c"})
	assert.False(t, short.WordsOK)
	assert.False(t, short.Passed())

	long := Validate(simpleProse(40), []string{"a", "b", "c"})
	assert.False(t, long.WordsOK)
}

func TestValidate_DomainDiversity(t *testing.T) {
	text := simpleProse(30)

	few := Validate(text, []string{"a.example", "a.example", "b.example"})
	assert.Equal(t, 2, few.DomainCount)
	assert.False(t, few.DomainsOK)

	blanks := Validate(text, []string{"a.example", "", "  ", "b.example", "c.example"})
	assert.Equal(t, 3, blanks.DomainCount)
	assert.True(t, blanks.DomainsOK)

	cased := Validate(text, []string{"A.Example", "a.example", "b.example"})
	assert.Equal(t, 2, cased.DomainCount)
}

func TestValidate_ReadabilityGate(t *testing.T) {
	// long sentences of polysyllabic words push the grade over 10
	hard := strings.Repeat("Institutionalization of multidimensional organizational methodologies necessitates comprehensive interdepartmental standardization procedures across heterogeneous infrastructures continuously everywhere ", 25)
	report := Validate(hard, []string{"a", "b", "c"})

	assert.Greater(t, report.GradeLevel, MaxGradeLevel)
	assert.False(t, report.ReadabilityOK)
}

func TestGradeLevel_SimpleTextIsEasy(t *testing.T) {
	grade := GradeLevel("The cat sat on the mat. The dog ran to the park.")
	assert.Less(t, grade, 5.0)
}

func TestGradeLevel_SentinelOnEmptyText(t *testing.T) {
	assert.Equal(t, GradeSentinel, GradeLevel(""))
	assert.Equal(t, GradeSentinel, GradeLevel("   "))
}

func TestGradeLevel_UnterminatedProseCountsOneSentence(t *testing.T) {
	grade := GradeLevel("the cat sat on the mat")
	assert.NotEqual(t, GradeSentinel, grade)
}

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"table", 2},
		{"mouse", 1},
		{"rhythm", 1},
		{"a", 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, countSyllables(tt.word), tt.word)
	}
}
