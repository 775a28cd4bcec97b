package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/errors"
)

const searchBody = `{
  "resultats": [
    {
      "intitule": "Développeur Go",
      "description": "Backend services",
      "dateCreation": "2024-01-05T10:12:33.000Z",
      "lieuTravail": {"libelle": "75 - Paris 11e", "codePostal": "75011", "commune": "75111"},
      "entreprise": {"nom": "ACME"},
      "typeContratLibelle": "Contrat à durée indéterminée",
      "salaire": {"libelle": "Annuel de 45000 Euros"},
      "experienceLibelle": "2 ans",
      "competences": [{"libelle": "Go"}, {"libelle": "SQL"}],
      "contact": {"urlPostulation": "https://example.org/apply"},
      "domaine": "M18",
      "region": "11"
    },
    {"intitule": "Boulanger"}
  ]
}`

func TestDailyParams(t *testing.T) {
	Convey("Given a moment in the afternoon", t, func() {
		now := time.Date(2024, 3, 15, 14, 30, 5, 999, time.UTC)
		p := DailyParams(now)

		So(p.MinCreationDate, ShouldEqual, "2024-03-15T00:00:00Z")
		So(p.MaxCreationDate, ShouldEqual, "2024-03-15T14:30:05Z")
	})

	Convey("Given a non-UTC clock", t, func() {
		paris := time.FixedZone("CET", 3600)
		p := DailyParams(time.Date(2024, 3, 16, 0, 30, 0, 0, paris))

		So(p.MinCreationDate, ShouldEqual, "2024-03-15T00:00:00Z")
		So(p.MaxCreationDate, ShouldEqual, "2024-03-15T23:30:00Z")
	})
}

func TestPostingFetcher(t *testing.T) {
	Convey("Given a search endpoint", t, func() {
		var gotQuery url.Values
		var gotAuth string
		status := http.StatusOK
		body := searchBody
		requests := 0

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			gotQuery = r.URL.Query()
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		defer srv.Close()

		tokens := &staticToken{token: "tok-123"}
		f := NewPostingFetcher(srv.URL, "0-9", srv.Client(), tokens, zap.NewNop())
		params := WindowParams(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))

		Convey("When the upstream answers 200", func() {
			postings, err := f.Fetch(context.Background(), params)

			Convey("Then the request carries the window and bearer token", func() {
				So(err, ShouldBeNil)
				So(gotAuth, ShouldEqual, "Bearer tok-123")
				So(gotQuery.Get("minCreationDate"), ShouldEqual, "2024-01-01T00:00:00Z")
				So(gotQuery.Get("maxCreationDate"), ShouldEqual, "2024-01-08T23:59:59Z")
				So(gotQuery.Get("range"), ShouldEqual, "0-9")
			})

			Convey("And every offer is mapped", func() {
				So(postings, ShouldHaveLength, 2)
				p := postings[0]
				So(*p.Title, ShouldEqual, "Développeur Go")
				So(*p.Company, ShouldEqual, "ACME")
				So(*p.Location, ShouldEqual, "75 - Paris 11e")
				So(*p.PostalCode, ShouldEqual, "75011")
				So(p.Department, ShouldEqual, "75")
				So(*p.Commune, ShouldEqual, "75111")
				So(p.Qualifications, ShouldResemble, []string{"Go", "SQL"})
				So(*p.ApplicationURL, ShouldEqual, "https://example.org/apply")

				bare := postings[1]
				So(bare.Company, ShouldBeNil)
				So(bare.PostalCode, ShouldBeNil)
				So(bare.Department, ShouldEqual, "")
				So(bare.Qualifications, ShouldBeEmpty)
			})
		})

		Convey("When the upstream answers 206 Partial Content", func() {
			status = http.StatusPartialContent
			postings, err := f.Fetch(context.Background(), params)

			So(err, ShouldBeNil)
			So(postings, ShouldHaveLength, 2)
		})

		Convey("When there are no results", func() {
			body = `{"resultats": []}`
			postings, err := f.Fetch(context.Background(), params)

			Convey("Then an empty, non-nil slice is returned", func() {
				So(err, ShouldBeNil)
				So(postings, ShouldNotBeNil)
				So(postings, ShouldBeEmpty)
			})
		})

		Convey("When the body is empty", func() {
			body = ""
			postings, err := f.Fetch(context.Background(), params)

			So(err, ShouldBeNil)
			So(postings, ShouldBeEmpty)
		})

		Convey("When the upstream rejects the request", func() {
			status = http.StatusBadRequest
			body = `{"message":"bad range"}`
			postings, err := f.Fetch(context.Background(), params)

			So(postings, ShouldBeNil)
			So(errors.Is(err, errors.ErrTypeUnavailable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "400")
		})

		Convey("When the upstream answers 204", func() {
			status = http.StatusNoContent
			body = ""
			_, err := f.Fetch(context.Background(), params)

			So(errors.Is(err, errors.ErrTypeUnavailable), ShouldBeTrue)
		})

		Convey("When the body is not JSON", func() {
			body = "<html>maintenance</html>"
			_, err := f.Fetch(context.Background(), params)

			So(errors.Is(err, errors.ErrTypeInternal), ShouldBeTrue)
		})

		Convey("When no token can be obtained", func() {
			tokens.err = errors.Unauthorized("missing client credentials", nil)
			_, err := f.Fetch(context.Background(), params)

			Convey("Then no search request is sent", func() {
				So(errors.Is(err, errors.ErrTypeUnauthorized), ShouldBeTrue)
				So(requests, ShouldEqual, 0)
			})
		})

		Convey("When a range is given explicitly", func() {
			params.Range = "10-19"
			_, err := f.Fetch(context.Background(), params)

			So(err, ShouldBeNil)
			So(gotQuery.Get("range"), ShouldEqual, "10-19")
		})
	})

	Convey("Given an unreachable search endpoint", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		addr := srv.URL
		srv.Close()

		f := NewPostingFetcher(addr, "0-9", nil, &staticToken{token: "tok"}, zap.NewNop())
		_, err := f.Fetch(context.Background(), DailyParams(time.Now()))

		So(errors.Is(err, errors.ErrTypeUnavailable), ShouldBeTrue)
	})
}
