package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/jrsteele09/go-counterparty-client/clients"
	apperrors "github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/jrsteele09/go-counterparty-client/transactions"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const clientNotFoundMessage = "Client not found"

type ClientsPage struct {
	Clients []*clients.Client
	Form    clients.ClientParams
	Errors  map[string]string
}

type GalleryPage struct {
	Pictures []int
}

type TransactionPage struct {
	Client       *clients.Client
	Transactions []*transactions.Transaction
	Amount       string
	Address      string
}

// ClientsPageHandler lists the clients (GET /)
func (s *Server) ClientsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderClients(w, r, http.StatusOK, clients.ClientParams{}, nil)
	}
}

func (s *Server) renderClients(w http.ResponseWriter, r *http.Request, status int, form clients.ClientParams, fieldErrors map[string]string) {
	list, err := s.deps.Clients.List(r.Context())
	if err != nil {
		log.Ctx(r.Context()).Err(err).Msg("Failed to list clients")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := s.newPageData(r, RouteNameClients, "Clients")
	data.Page = ClientsPage{Clients: list, Form: form, Errors: fieldErrors}
	s.pages.render(w, r, status, "clients.html", data)
}

// AddClientHandler creates a client from the form (POST /clients)
func (s *Server) AddClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := clients.ClientParams{
			Name:    strings.TrimSpace(r.FormValue("name")),
			Address: strings.TrimSpace(r.FormValue("address")),
		}

		client, err := s.deps.Clients.Add(r.Context(), params)
		if err != nil {
			var fieldErrs validation.Errors
			if errors.As(err, &fieldErrs) {
				s.renderClients(w, r, http.StatusUnprocessableEntity, params, fieldMessages(fieldErrs))
				return
			}
			log.Ctx(r.Context()).Err(err).Msg("Failed to add client")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}

		log.Ctx(r.Context()).Info().Str("clientId", client.ID).Msg("Client added")
		redirectSuccess(w, r, RouteClients)
	}
}

// DeleteClientHandler removes a client (POST /clients/{clientId}/delete)
func (s *Server) DeleteClientHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.PathValue("clientId")
		if err := s.deps.Clients.Delete(r.Context(), clientID); err != nil {
			log.Ctx(r.Context()).Err(err).Str("clientId", clientID).Msg("Failed to delete client")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		redirectSuccess(w, r, RouteClients)
	}
}

// GalleryPageHandler offers the avatar pictures (GET /gallery)
func (s *Server) GalleryPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, RouteNameGallery, "Gallery")
		data.Page = GalleryPage{Pictures: galleryPictures()}
		s.pages.render(w, r, http.StatusOK, "gallery.html", data)
	}
}

// SelectPictureHandler stores or clears the user's picture (POST /gallery)
func (s *Server) SelectPictureHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pictureID *int
		if raw := r.FormValue("pictureId"); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 1 || id > galleryPictureCount {
				http.Error(w, "400 - Unknown picture", http.StatusBadRequest)
				return
			}
			pictureID = &id
		}

		if err := s.deps.Session.SetUserPictureID(r.Context(), pictureID); err != nil {
			log.Ctx(r.Context()).Err(err).Msg("Failed to store user picture")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		redirectSuccess(w, r, RouteGallery)
	}
}

// TransactionPageHandler shows a client's transactions (GET /transaction/{selectedClientId})
func (s *Server) TransactionPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderTransaction(w, r, http.StatusOK, "", "", "")
	}
}

func (s *Server) renderTransaction(w http.ResponseWriter, r *http.Request, status int, amount, address, formError string) {
	clientID := r.PathValue("selectedClientId")
	client, err := s.deps.Clients.Get(r.Context(), clientID)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.deps.Alerts.Alert(clientNotFoundMessage)
		redirectSuccess(w, r, RouteClients)
		return
	}
	if err != nil {
		log.Ctx(r.Context()).Err(err).Str("clientId", clientID).Msg("Failed to load client")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	list, err := s.deps.Transactions.ListByClient(r.Context(), clientID)
	if err != nil {
		log.Ctx(r.Context()).Err(err).Str("clientId", clientID).Msg("Failed to list transactions")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := s.newPageData(r, RouteNameTransaction, "Transaction")
	data.Error = formError
	data.Page = TransactionPage{Client: client, Transactions: list, Amount: amount, Address: address}
	s.pages.render(w, r, status, "transaction.html", data)
}

// SimulateTransactionHandler records a transaction (POST /transaction/{selectedClientId})
func (s *Server) SimulateTransactionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.PathValue("selectedClientId")
		rawAmount := strings.TrimSpace(r.FormValue("amount"))
		address := strings.TrimSpace(r.FormValue("address"))

		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			s.renderTransaction(w, r, http.StatusUnprocessableEntity, rawAmount, address, "Amount must be a number.")
			return
		}
		if amount.IsZero() {
			s.renderTransaction(w, r, http.StatusUnprocessableEntity, rawAmount, address, "Amount must not be zero.")
			return
		}
		if address != "" {
			if err := clients.ValidateAddress(address); err != nil {
				s.renderTransaction(w, r, http.StatusUnprocessableEntity, rawAmount, address, err.Error())
				return
			}
		}

		_, err = s.deps.Transactions.Simulate(r.Context(), clientID, amount, address)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			s.deps.Alerts.Alert(clientNotFoundMessage)
			redirectSuccess(w, r, RouteClients)
		case err != nil:
			log.Ctx(r.Context()).Err(err).Str("clientId", clientID).Msg("Failed to simulate transaction")
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		default:
			redirectSuccess(w, r, TransactionPath(clientID))
		}
	}
}

// LoginPageHandler offers the sign in button (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := s.newPageData(r, RouteNameLogin, "Sign in")
		s.pages.render(w, r, http.StatusOK, "login.html", data)
	}
}

func fieldMessages(fieldErrs validation.Errors) map[string]string {
	messages := make(map[string]string, len(fieldErrs))
	for field, err := range fieldErrs {
		messages[field] = err.Error()
	}
	return messages
}
