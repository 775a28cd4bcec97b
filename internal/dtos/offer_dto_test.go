package dtos

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const fullOffer = `{
  "resultats": [{
    "id": "171XHJQ",
    "intitule": "Data engineer (H/F)",
    "description": "Pipeline batch et streaming",
    "dateCreation": "2024-01-03T09:15:42.000Z",
    "lieuTravail": {"libelle": "75 - Paris 11e", "codePostal": "75011", "commune": "75111"},
    "entreprise": {"nom": "ACME"},
    "typeContratLibelle": "Contrat à durée indéterminée",
    "experienceLibelle": "2 ans",
    "competences": [{"code": "1", "libelle": "Python"}, {"code": "2", "libelle": "SQL"}],
    "salaire": {"libelle": "Annuel de 45000 Euros"},
    "contact": {"urlPostulation": "https://example.org/apply"},
    "domaine": "M18",
    "region": "11"
  }]
}`

func TestOfferToPosting(t *testing.T) {
	Convey("Given a complete upstream offer", t, func() {
		var resp SearchResponse
		So(json.Unmarshal([]byte(fullOffer), &resp), ShouldBeNil)
		So(resp.Resultats, ShouldHaveLength, 1)

		p := resp.Resultats[0].ToPosting()

		Convey("Then every field is mapped", func() {
			So(*p.Title, ShouldEqual, "Data engineer (H/F)")
			So(*p.Company, ShouldEqual, "ACME")
			So(*p.Location, ShouldEqual, "75 - Paris 11e")
			So(*p.PostalCode, ShouldEqual, "75011")
			So(*p.ContractType, ShouldEqual, "Contrat à durée indéterminée")
			So(*p.Description, ShouldEqual, "Pipeline batch et streaming")
			So(*p.Salary, ShouldEqual, "Annuel de 45000 Euros")
			So(*p.RequiredExperience, ShouldEqual, "2 ans")
			So(p.Qualifications, ShouldResemble, []string{"Python", "SQL"})
			So(*p.DateCreated, ShouldEqual, "2024-01-03T09:15:42.000Z")
			So(*p.ApplicationURL, ShouldEqual, "https://example.org/apply")
			So(p.Department, ShouldEqual, "75")
			So(*p.Commune, ShouldEqual, "75111")
			So(*p.Domain, ShouldEqual, "M18")
			So(*p.Region, ShouldEqual, "11")
		})
	})

	Convey("Given an offer without nested objects", t, func() {
		var o Offer
		So(json.Unmarshal([]byte(`{"intitule": "Boulanger"}`), &o), ShouldBeNil)

		p := o.ToPosting()

		Convey("Then the record is kept with absent fields", func() {
			So(*p.Title, ShouldEqual, "Boulanger")
			So(p.Company, ShouldBeNil)
			So(p.Location, ShouldBeNil)
			So(p.PostalCode, ShouldBeNil)
			So(p.Salary, ShouldBeNil)
			So(p.ApplicationURL, ShouldBeNil)
			So(p.Commune, ShouldBeNil)
			So(p.Department, ShouldEqual, "")
			So(p.Qualifications, ShouldNotBeNil)
			So(p.Qualifications, ShouldBeEmpty)
		})
	})

	Convey("Given a one-character postal code", t, func() {
		var o Offer
		So(json.Unmarshal([]byte(`{"lieuTravail": {"codePostal": "9"}}`), &o), ShouldBeNil)
		So(o.ToPosting().Department, ShouldEqual, "")
	})

	Convey("When serialized back to JSON", t, func() {
		var o Offer
		So(json.Unmarshal([]byte(`{"intitule": "Boulanger"}`), &o), ShouldBeNil)
		raw, err := json.Marshal(o.ToPosting())
		So(err, ShouldBeNil)

		Convey("Then absent fields are null and qualifications an empty array", func() {
			So(string(raw), ShouldContainSubstring, `"company":null`)
			So(string(raw), ShouldContainSubstring, `"qualifications":[]`)
			So(string(raw), ShouldContainSubstring, `"department":""`)
		})
	})
}
