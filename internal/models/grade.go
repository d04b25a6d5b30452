package models

// FieldKey names one of the six score slots inside a chapter.
type FieldKey string

const (
	FieldF1  FieldKey = "f1"
	FieldF2  FieldKey = "f2"
	FieldF3  FieldKey = "f3"
	FieldF4  FieldKey = "f4"
	FieldF5  FieldKey = "f5"
	FieldSum FieldKey = "sum"
)

// FieldKeys lists chapter slots in display order.
var FieldKeys = []FieldKey{FieldF1, FieldF2, FieldF3, FieldF4, FieldF5, FieldSum}

// Valid reports whether the key is one of the six chapter slots.
func (f FieldKey) Valid() bool {
	for _, key := range FieldKeys {
		if key == f {
			return true
		}
	}
	return false
}

// ChapterKey identifies one of the five curriculum units of a semester.
type ChapterKey string

const (
	Chapter1 ChapterKey = "ch1"
	Chapter2 ChapterKey = "ch2"
	Chapter3 ChapterKey = "ch3"
	Chapter4 ChapterKey = "ch4"
	Chapter5 ChapterKey = "ch5"
)

// ChapterKeys lists chapters in display order.
var ChapterKeys = []ChapterKey{Chapter1, Chapter2, Chapter3, Chapter4, Chapter5}

// Valid reports whether the key names a known chapter.
func (c ChapterKey) Valid() bool {
	for _, key := range ChapterKeys {
		if key == c {
			return true
		}
	}
	return false
}

// SemesterKey selects the odd or even half of the academic year.
type SemesterKey string

const (
	SemesterOdd  SemesterKey = "odd"
	SemesterEven SemesterKey = "even"
)

// Valid reports whether the key is odd or even.
func (s SemesterKey) Valid() bool {
	return s == SemesterOdd || s == SemesterEven
}

// ChapterGrades is one chapter's assessment record for a student. Nil means unset.
type ChapterGrades struct {
	F1  *float64 `json:"f1"`
	F2  *float64 `json:"f2"`
	F3  *float64 `json:"f3"`
	F4  *float64 `json:"f4"`
	F5  *float64 `json:"f5"`
	Sum *float64 `json:"sum"`
}

// Get returns the value stored in the given slot.
func (c ChapterGrades) Get(field FieldKey) *float64 {
	switch field {
	case FieldF1:
		return c.F1
	case FieldF2:
		return c.F2
	case FieldF3:
		return c.F3
	case FieldF4:
		return c.F4
	case FieldF5:
		return c.F5
	case FieldSum:
		return c.Sum
	default:
		return nil
	}
}

// Set replaces the value stored in the given slot. Unknown fields are ignored.
func (c *ChapterGrades) Set(field FieldKey, value *float64) {
	value = copyScore(value)
	switch field {
	case FieldF1:
		c.F1 = value
	case FieldF2:
		c.F2 = value
	case FieldF3:
		c.F3 = value
	case FieldF4:
		c.F4 = value
	case FieldF5:
		c.F5 = value
	case FieldSum:
		c.Sum = value
	}
}

// HasAny reports whether at least one slot holds a value.
func (c ChapterGrades) HasAny() bool {
	for _, field := range FieldKeys {
		if c.Get(field) != nil {
			return true
		}
	}
	return false
}

// SemesterData holds one student's semester record for a subject.
type SemesterData struct {
	Ch1 ChapterGrades `json:"ch1"`
	Ch2 ChapterGrades `json:"ch2"`
	Ch3 ChapterGrades `json:"ch3"`
	Ch4 ChapterGrades `json:"ch4"`
	Ch5 ChapterGrades `json:"ch5"`
	KTS *float64      `json:"kts"`
	SAS *float64      `json:"sas"`
}

// NewSemesterData returns a semester record with every slot unset.
func NewSemesterData() SemesterData {
	return SemesterData{}
}

// Chapter returns the chapter record for key, or nil for an unknown key.
func (s *SemesterData) Chapter(key ChapterKey) *ChapterGrades {
	switch key {
	case Chapter1:
		return &s.Ch1
	case Chapter2:
		return &s.Ch2
	case Chapter3:
		return &s.Ch3
	case Chapter4:
		return &s.Ch4
	case Chapter5:
		return &s.Ch5
	default:
		return nil
	}
}

// ChapterAt returns a copy of the chapter record for key.
func (s SemesterData) ChapterAt(key ChapterKey) ChapterGrades {
	if ch := s.Chapter(key); ch != nil {
		return *ch
	}
	return ChapterGrades{}
}

// SubjectGrades is the odd/even semester pair of a subject. Both halves are always present.
type SubjectGrades struct {
	Odd  SemesterData `json:"odd"`
	Even SemesterData `json:"even"`
}

// NewSubjectGrades returns an empty semester pair.
func NewSubjectGrades() SubjectGrades {
	return SubjectGrades{Odd: NewSemesterData(), Even: NewSemesterData()}
}

// Semester returns the record for the requested half.
func (g *SubjectGrades) Semester(key SemesterKey) *SemesterData {
	switch key {
	case SemesterOdd:
		return &g.Odd
	case SemesterEven:
		return &g.Even
	default:
		return nil
	}
}

// Score builds an optional score from a literal.
func Score(v float64) *float64 {
	return &v
}

func copyScore(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
