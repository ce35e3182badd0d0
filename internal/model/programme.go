package model

// Programme is an academic degree offering, defined independently of any
// regulation and synced from the master system.
type Programme struct {
	ID         string         `bson:"_id" json:"id"`
	Category   string         `bson:"category" json:"category"`
	Name       string         `bson:"name" json:"name"`
	Type       string         `bson:"type" json:"type"`
	Mode       string         `bson:"mode" json:"mode"`
	Duration   int            `bson:"duration" json:"duration"` // years
	Stream     string         `bson:"stream" json:"stream"`
	ShortName  string         `bson:"shortName" json:"short_name"`
	Department DepartmentInfo `bson:"department" json:"department"`
	BaseModel  `bson:",inline"`
}

// ProgrammeInfo is the programme descriptor copied into dependent documents.
type ProgrammeInfo struct {
	ID        string `bson:"id" json:"id"`
	Category  string `bson:"category" json:"category"`
	Name      string `bson:"name" json:"name"`
	Type      string `bson:"type" json:"type"`
	Mode      string `bson:"mode" json:"mode"`
	Duration  int    `bson:"duration" json:"duration"`
	Stream    string `bson:"stream" json:"stream"`
	ShortName string `bson:"shortName" json:"short_name"`
}

// Info projects the descriptor copied into dependents.
func (p *Programme) Info() ProgrammeInfo {
	return ProgrammeInfo{
		ID:        p.ID,
		Category:  p.Category,
		Name:      p.Name,
		Type:      p.Type,
		Mode:      p.Mode,
		Duration:  p.Duration,
		Stream:    p.Stream,
		ShortName: p.ShortName,
	}
}

// BatchYear is an admitted cohort of one programme section.
type BatchYear struct {
	ID          string         `bson:"_id" json:"id"`
	Year        int            `bson:"year" json:"year"`
	Programme   ProgrammeInfo  `bson:"programme" json:"programme"`
	Department  DepartmentInfo `bson:"department" json:"department"`
	SectionName string         `bson:"sectionName" json:"section_name"`
	BaseModel   `bson:",inline"`
}
