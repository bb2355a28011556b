package question

import (
	"strings"
	"time"
)

// Subject is one of the four 11+ exam subjects.
type Subject string

const (
	SubjectEnglish            Subject = "english"
	SubjectMaths              Subject = "maths"
	SubjectVerbalReasoning    Subject = "verbal_reasoning"
	SubjectNonVerbalReasoning Subject = "non_verbal_reasoning"
)

// Subjects lists all subjects in catalogue order.
var Subjects = []Subject{
	SubjectEnglish,
	SubjectMaths,
	SubjectVerbalReasoning,
	SubjectNonVerbalReasoning,
}

// Type identifies a question type within a subject.
type Type string

const (
	// English
	TypeComprehension      Type = "comprehension"
	TypeGrammar            Type = "grammar"
	TypeSpelling           Type = "spelling"
	TypeVocabulary         Type = "vocabulary"
	TypeSentenceCompletion Type = "sentence_completion"
	TypePunctuation        Type = "punctuation"

	// Maths
	TypeNumberOperations Type = "number_operations"
	TypeFractions        Type = "fractions"
	TypeDecimals         Type = "decimals"
	TypePercentages      Type = "percentages"
	TypeGeometry         Type = "geometry"
	TypeMeasurement      Type = "measurement"
	TypeDataHandling     Type = "data_handling"
	TypeWordProblems     Type = "word_problems"
	TypeAlgebra          Type = "algebra"
	TypeRatio            Type = "ratio"

	// Verbal reasoning (GL types)
	TypeVRInsertLetter        Type = "vr_insert_letter"
	TypeVROddOnesOut          Type = "vr_odd_ones_out"
	TypeVRAlphabetCode        Type = "vr_alphabet_code"
	TypeVRSynonyms            Type = "vr_synonyms"
	TypeVRHiddenWord          Type = "vr_hidden_word"
	TypeVRMissingWord         Type = "vr_missing_word"
	TypeVRNumberSeries        Type = "vr_number_series"
	TypeVRLetterSeries        Type = "vr_letter_series"
	TypeVRNumberConnections   Type = "vr_number_connections"
	TypeVRWordPairs           Type = "vr_word_pairs"
	TypeVRMultipleMeaning     Type = "vr_multiple_meaning"
	TypeVRLetterRelationships Type = "vr_letter_relationships"
	TypeVRNumberCodes         Type = "vr_number_codes"
	TypeVRCompoundWords       Type = "vr_compound_words"
	TypeVRWordShuffling       Type = "vr_word_shuffling"
	TypeVRAnagrams            Type = "vr_anagrams"
	TypeVRLogicProblems       Type = "vr_logic_problems"
	TypeVRExploreFacts        Type = "vr_explore_facts"
	TypeVRSolveRiddle         Type = "vr_solve_riddle"
	TypeVRRhymingSynonyms     Type = "vr_rhyming_synonyms"
	TypeVRShuffledSentences   Type = "vr_shuffled_sentences"

	// Non-verbal reasoning
	TypeNVRSequences  Type = "nvr_sequences"
	TypeNVROddOneOut  Type = "nvr_odd_one_out"
	TypeNVRAnalogies  Type = "nvr_analogies"
	TypeNVRMatrices   Type = "nvr_matrices"
	TypeNVRRotation   Type = "nvr_rotation"
	TypeNVRReflection Type = "nvr_reflection"
	TypeNVRSpatial3D  Type = "nvr_spatial_3d"
	TypeNVRCodes      Type = "nvr_codes"
	TypeNVRVisual     Type = "nvr_visual"
)

// Catalogue maps each subject to its question types in fixed order. The
// order is load-bearing: never-practiced recommendations are emitted in
// catalogue order.
var Catalogue = map[Subject][]Type{
	SubjectEnglish: {
		TypeComprehension, TypeGrammar, TypeSpelling,
		TypeVocabulary, TypeSentenceCompletion, TypePunctuation,
	},
	SubjectMaths: {
		TypeNumberOperations, TypeFractions, TypeDecimals, TypePercentages,
		TypeGeometry, TypeMeasurement, TypeDataHandling, TypeWordProblems,
		TypeAlgebra, TypeRatio,
	},
	SubjectVerbalReasoning: {
		TypeVRInsertLetter, TypeVROddOnesOut, TypeVRAlphabetCode,
		TypeVRSynonyms, TypeVRHiddenWord, TypeVRMissingWord,
		TypeVRNumberSeries, TypeVRLetterSeries, TypeVRNumberConnections,
		TypeVRWordPairs, TypeVRMultipleMeaning, TypeVRLetterRelationships,
		TypeVRNumberCodes, TypeVRCompoundWords, TypeVRWordShuffling,
		TypeVRAnagrams, TypeVRLogicProblems, TypeVRExploreFacts,
		TypeVRSolveRiddle, TypeVRRhymingSynonyms, TypeVRShuffledSentences,
	},
	SubjectNonVerbalReasoning: {
		TypeNVRSequences, TypeNVROddOneOut, TypeNVRAnalogies,
		TypeNVRMatrices, TypeNVRRotation, TypeNVRReflection,
		TypeNVRSpatial3D, TypeNVRCodes, TypeNVRVisual,
	},
}

// Content holds the presentable part of a question. Fields beyond Text are
// format-dependent and may be empty.
type Content struct {
	Text     string   `json:"text"`
	Passage  string   `json:"passage,omitempty"`
	Options  []string `json:"options,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// Answer is the canonical answer for a question.
type Answer struct {
	Value            string   `json:"value"`
	AcceptVariations []string `json:"accept_variations,omitempty"`
	CaseSensitive    bool     `json:"case_sensitive,omitempty"`
}

// Hint is a progressive hint; level 1 is subtle, level 3 detailed.
type Hint struct {
	Level   int     `json:"level"`
	Text    string  `json:"text"`
	Penalty float64 `json:"penalty"`
}

// Question is a complete question with all metadata.
type Question struct {
	ID           string
	Subject      Subject
	QuestionType Type
	Format       string
	Difficulty   int // 1..5
	Content      Content
	Answer       Answer
	Explanation  string
	Hints        []Hint
	Tags         []string
	Source       *string
	CreatedAt    time.Time
}

// Check reports whether userAnswer matches the canonical answer. Comparison
// trims whitespace and is case-insensitive unless the answer says otherwise.
// Accepted variations are checked under the same rules.
func (q *Question) Check(userAnswer string) bool {
	if equalAnswers(userAnswer, q.Answer.Value, q.Answer.CaseSensitive) {
		return true
	}
	for _, v := range q.Answer.AcceptVariations {
		if equalAnswers(userAnswer, v, q.Answer.CaseSensitive) {
			return true
		}
	}
	return false
}

func equalAnswers(got, want string, caseSensitive bool) bool {
	got = strings.TrimSpace(got)
	want = strings.TrimSpace(want)
	if caseSensitive {
		return got == want
	}
	return strings.EqualFold(got, want)
}
