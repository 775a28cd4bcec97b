package dtos

import "github.com/justsurfingit/job-market-sync/internal/models"

// SearchResponse mirrors the France Travail offres/search envelope.
type SearchResponse struct {
	Resultats []Offer `json:"resultats"`
}

// Offer mirrors the subset of an upstream offer the service keeps.
// Nested objects are pointers because the upstream omits them freely.
type Offer struct {
	Intitule           *string      `json:"intitule"`
	Description        *string      `json:"description"`
	DateCreation       *string      `json:"dateCreation"`
	TypeContratLibelle *string      `json:"typeContratLibelle"`
	ExperienceLibelle  *string      `json:"experienceLibelle"`
	Domaine            *string      `json:"domaine"`
	Region             *string      `json:"region"`
	LieuTravail        *LieuTravail `json:"lieuTravail"`
	Entreprise         *Entreprise  `json:"entreprise"`
	Salaire            *Salaire     `json:"salaire"`
	Contact            *Contact     `json:"contact"`
	Competences        []Competence `json:"competences"`
}

type LieuTravail struct {
	Libelle    *string `json:"libelle"`
	CodePostal *string `json:"codePostal"`
	Commune    *string `json:"commune"`
}

type Entreprise struct {
	Nom *string `json:"nom"`
}

type Salaire struct {
	Libelle *string `json:"libelle"`
}

type Contact struct {
	URLPostulation *string `json:"urlPostulation"`
}

type Competence struct {
	Libelle *string `json:"libelle"`
}

// ToPosting maps an upstream offer to a normalized posting. Missing nested
// objects leave the corresponding fields nil.
func (o Offer) ToPosting() models.Posting {
	p := models.Posting{
		Title:              o.Intitule,
		ContractType:       o.TypeContratLibelle,
		Description:        o.Description,
		RequiredExperience: o.ExperienceLibelle,
		DateCreated:        o.DateCreation,
		Domain:             o.Domaine,
		Region:             o.Region,
		Qualifications:     make([]string, 0, len(o.Competences)),
	}

	if o.Entreprise != nil {
		p.Company = o.Entreprise.Nom
	}
	if o.LieuTravail != nil {
		p.Location = o.LieuTravail.Libelle
		p.PostalCode = o.LieuTravail.CodePostal
		p.Commune = o.LieuTravail.Commune
	}
	if o.Salaire != nil {
		p.Salary = o.Salaire.Libelle
	}
	if o.Contact != nil {
		p.ApplicationURL = o.Contact.URLPostulation
	}
	for _, c := range o.Competences {
		if c.Libelle == nil {
			continue
		}
		p.Qualifications = append(p.Qualifications, *c.Libelle)
	}
	p.Department = models.DepartmentFromPostalCode(p.PostalCode)

	return p
}
