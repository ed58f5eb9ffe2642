package server

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-counterparty-client/routeguard"
)

// Page route names. Guard decisions refer to pages by these names.
const (
	RouteNameClients     = "clients"
	RouteNameGallery     = "gallery"
	RouteNameTransaction = "transaction"
	RouteNameLogin       = "login"
)

// Route path constants
const (
	// Pages
	RouteClients     = "/"
	RouteGallery     = "/gallery"
	RouteTransaction = "/transaction/{selectedClientId}"
	RouteLogin       = "/login"

	// Page actions
	RouteClientsDelete = "/clients/{clientId}/delete"
	RouteClientsAdd    = "/clients"

	// Auth
	RouteAuthSignIn  = "/auth/signin"
	RouteAuthSignOut = "/auth/signout"
	RouteCallback    = "/callback"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file}"
)

const transactionPrefix = "/transaction/"

var pagePaths = map[string]string{
	RouteNameClients:     RouteClients,
	RouteNameGallery:     RouteGallery,
	RouteNameTransaction: RouteTransaction,
	RouteNameLogin:       RouteLogin,
}

// RoutePath resolves a page name to the path the browser is sent to.
// Names of pages with parameters fall back to the clients page.
func RoutePath(name string) string {
	path, ok := pagePaths[name]
	if !ok || strings.Contains(path, "{") {
		return RouteClients
	}
	return path
}

// TransactionPath returns the transaction page of a client.
func TransactionPath(clientID string) string {
	return transactionPrefix + url.PathEscape(clientID)
}

// routeForPath maps a request path back to its page, if it is one.
func routeForPath(path string) (routeguard.Route, bool) {
	switch {
	case path == RouteClients:
		return routeguard.Route{Name: RouteNameClients, Path: path}, true
	case path == RouteGallery:
		return routeguard.Route{Name: RouteNameGallery, Path: path}, true
	case path == RouteLogin:
		return routeguard.Route{Name: RouteNameLogin, Path: path}, true
	case strings.HasPrefix(path, transactionPrefix) && len(path) > len(transactionPrefix):
		return routeguard.Route{Name: RouteNameTransaction, Path: path}, true
	default:
		return routeguard.Route{}, false
	}
}

// refererRoute is the page the navigation started from, when the browser says so.
func refererRoute(referer string) routeguard.Route {
	if referer == "" {
		return routeguard.Route{}
	}
	u, err := url.Parse(referer)
	if err != nil {
		return routeguard.Route{}
	}
	route, _ := routeForPath(u.Path)
	return route
}
