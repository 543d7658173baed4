// Package subject holds the fixed catalog of law subjects a student can study.
package subject

type Subject struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var builtin = []Subject{
	{ID: "intl_private", Name: "قانون دولي خاص", Description: "تنازع القوانين، الجنسية، ومركز الأجانب.", Icon: "🌍"},
	{ID: "sharia", Name: "شريعة إسلامية", Description: "أحكام المواريث وتوزيع التركات.", Icon: "⚖️"},
	{ID: "commercial", Name: "قانون تجاري", Description: "الأعمال التجارية والشركات.", Icon: "💼"},
	{ID: "admin_judiciary", Name: "قضاء إداري", Description: "مجلس الدولة ودعوى الإلغاء.", Icon: "🏛️"},
	{ID: "public_finance", Name: "مالية عامة", Description: "الموازنة العامة والضرائب.", Icon: "💰"},
}

type Catalog struct {
	subjects []Subject
	byID     map[string]Subject
}

func NewCatalog() *Catalog {
	c := &Catalog{
		subjects: builtin,
		byID:     make(map[string]Subject, len(builtin)),
	}
	for _, s := range builtin {
		c.byID[s.ID] = s
	}
	return c
}

func (c *Catalog) List() []Subject {
	out := make([]Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

func (c *Catalog) Get(id string) (Subject, bool) {
	s, ok := c.byID[id]
	return s, ok
}
