package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	// Pages
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.ClientsPageHandler(), s.PageMiddleware(RouteNameClients)...))
	s.RegisterRouteHandler("GET "+RouteGallery, ChainMiddleware(s.GalleryPageHandler(), s.PageMiddleware(RouteNameGallery)...))
	s.RegisterRouteHandler("GET "+RouteTransaction, ChainMiddleware(s.TransactionPageHandler(), s.PageMiddleware(RouteNameTransaction)...))
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware(RouteNameLogin)...))

	// Page actions are guarded as the page that posts them
	s.RegisterRouteHandler("POST "+RouteClientsAdd, ChainMiddleware(s.AddClientHandler(), s.PageMiddleware(RouteNameClients)...))
	s.RegisterRouteHandler("POST "+RouteClientsDelete, ChainMiddleware(s.DeleteClientHandler(), s.PageMiddleware(RouteNameClients)...))
	s.RegisterRouteHandler("POST "+RouteGallery, ChainMiddleware(s.SelectPictureHandler(), s.PageMiddleware(RouteNameGallery)...))
	s.RegisterRouteHandler("POST "+RouteTransaction, ChainMiddleware(s.SimulateTransactionHandler(), s.PageMiddleware(RouteNameTransaction)...))

	// Auth
	s.RegisterRouteHandler("POST "+RouteAuthSignIn, ChainMiddleware(s.SignInHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAuthSignOut, ChainMiddleware(s.SignOutHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.CallbackHandler(), s.HTMLMiddleWare()...))

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.HTMLMiddleWare(s.CacheMiddleware)...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.PathValue("file"), "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path string, err error) {
	log.Error().Err(err).Msgf("[%-19s] %s", colourMethod(method), Red+path+ResetColor)
}
