package models

// Person is a profile together with its survey answers
type Person struct {
	Profile UserProfile `json:"profile"`
	Survey  Survey      `json:"survey,omitempty"` // nil when no survey could be read
}

// ID is shorthand for Profile.UserID
func (p Person) ID() string {
	return p.Profile.UserID
}

// Duo is two people who named each other as partner for the current cycle
type Duo struct {
	First  Person `json:"first"`
	Second Person `json:"second"`
}

// Members returns both people in load order
func (d Duo) Members() [2]Person {
	return [2]Person{d.First, d.Second}
}

// IDs returns both user ids in load order
func (d Duo) IDs() [2]string {
	return [2]string{d.First.ID(), d.Second.ID()}
}

// Answer is the duo-level scalar answer: the first member's, else the second's
func (d Duo) Answer(question string) string {
	if v := d.First.Survey.String(question); v != "" {
		return v
	}
	return d.Second.Survey.String(question)
}

// Answers is the duo-level multi-select answer: both members' selections, deduplicated
func (d Duo) Answers(question string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range d.Members() {
		for _, v := range p.Survey.Strings(question) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// HasSurvey reports whether at least one member has a survey on record
func (d Duo) HasSurvey() bool {
	return d.First.Survey != nil || d.Second.Survey != nil
}
