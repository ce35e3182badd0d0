package model

// Department reference data synced from the institution's master system.
type Department struct {
	ID        string `bson:"_id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Category  string `bson:"category" json:"category"`
	ShortName string `bson:"shortName" json:"short_name"`
	BaseModel `bson:",inline"`
}

// DepartmentInfo is the department descriptor copied into dependent
// documents.
type DepartmentInfo struct {
	ID        string `bson:"id" json:"id"`
	Name      string `bson:"name" json:"name"`
	Category  string `bson:"category" json:"category"`
	ShortName string `bson:"shortName" json:"short_name"`
}

// Info projects the descriptor copied into dependents.
func (d *Department) Info() DepartmentInfo {
	return DepartmentInfo{ID: d.ID, Name: d.Name, Category: d.Category, ShortName: d.ShortName}
}
