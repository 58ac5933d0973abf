package artifacts

import "time"

// Pack is the structured career profile distilled from a user's resume. It is
// stored as one JSONB document per version.
type Pack struct {
	Profile       Profile  `json:"profile"`
	BulletBank    []string `json:"bullet_bank"`
	AnswerLibrary []Answer `json:"answer_library"`
	ProofPack     []Proof  `json:"proof_pack"`
}

type Profile struct {
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Phone      string       `json:"phone,omitempty"`
	Location   string       `json:"location,omitempty"`
	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects"`
	Skills     Skills       `json:"skills"`
	Links      Links        `json:"links"`
}

type Education struct {
	School string `json:"school"`
	Degree string `json:"degree,omitempty"`
	Field  string `json:"field,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

type Experience struct {
	Company string   `json:"company"`
	Title   string   `json:"title"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tech        []string `json:"tech,omitempty"`
}

type Skills struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Tools      []string `json:"tools"`
	Other      []string `json:"other"`
}

type Links struct {
	Website  string `json:"website,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Proof struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// All returns every skill in the pack as a flat list.
func (s Skills) All() []string {
	out := make([]string, 0, len(s.Languages)+len(s.Frameworks)+len(s.Tools)+len(s.Other))
	out = append(out, s.Languages...)
	out = append(out, s.Frameworks...)
	out = append(out, s.Tools...)
	out = append(out, s.Other...)
	return out
}

// Artifact is one persisted version of a user's pack.
type Artifact struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Pack      Pack      `json:"pack"`
	CreatedAt time.Time `json:"created_at"`
}
