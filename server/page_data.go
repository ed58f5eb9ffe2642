package server

import (
	"html/template"
	"net/http"
	"strconv"

	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/jrsteele09/go-counterparty-client/internal/format"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// galleryPictureCount is the number of pictures offered as avatars.
const galleryPictureCount = 12

// PageData is the model shared by every page template.
type PageData struct {
	AppName       string
	Title         string
	Route         string
	Alerts        []string
	Authenticated bool
	Profile       *identity.Profile
	PictureID     int
	HasPicture    bool
	Error         string
	Page          any
}

func (s *Server) newPageData(r *http.Request, routeName, title string) PageData {
	session := s.deps.Session
	data := PageData{
		AppName:       s.appName,
		Title:         title,
		Route:         routeName,
		Alerts:        s.deps.Alerts.Drain(),
		Authenticated: session.IsAuthenticated(),
		Profile:       session.UserProfile(),
	}

	id, ok, err := session.UserPictureID(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Err(err).Msg("Failed to read user picture")
	}
	data.PictureID, data.HasPicture = id, ok
	return data
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"balance": func(value decimal.Decimal) string {
			return format.Balance(&value)
		},
		"amount": func(value decimal.Decimal) string {
			return format.Amount(value, s.currency)
		},
		"pictureURL":      pictureURL,
		"transactionPath": TransactionPath,
		"displayName": func(profile *identity.Profile) string {
			return profile.DisplayName()
		},
	}
}

func pictureURL(id int) string {
	return "https://picsum.photos/id/" + strconv.Itoa(id) + "/160"
}

func galleryPictures() []int {
	pictures := make([]int, galleryPictureCount)
	for i := range pictures {
		pictures[i] = i + 1
	}
	return pictures
}
