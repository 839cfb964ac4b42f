package handlers

import (
	"circl/middleware"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Revocations backs the session token check on protected routes.
	Revocations middleware.RevocationChecker

	// Discovery endpoints
	ListDomainsHandler gin.HandlerFunc
	SubmitQuizHandler  gin.HandlerFunc
	AppearHandler      gin.HandlerFunc
	GetViewHandler     gin.HandlerFunc
	SearchHandler      gin.HandlerFunc

	// Session endpoints
	LaunchHandler   gin.HandlerFunc
	LoginHandler    gin.HandlerFunc
	LogoutHandler   gin.HandlerFunc
	RootHandler     gin.HandlerFunc
	SetTitleHandler gin.HandlerFunc

	// Network endpoints
	MembershipHandler      gin.HandlerFunc
	EmailMembershipHandler gin.HandlerFunc
	ListMembersHandler     gin.HandlerFunc
	RefreshNetworkHandler  gin.HandlerFunc
	AddMemberHandler       gin.HandlerFunc
	RemoveMemberHandler    gin.HandlerFunc
}

// NewHandlerBundle wires every handler method into a bundle.
func NewHandlerBundle(d *DiscoveryHandler, s *SessionHandler, n *NetworkHandler) *HandlerBundle {
	return &HandlerBundle{
		Revocations: s.Gate,

		ListDomainsHandler: d.ListDomainsHandler,
		SubmitQuizHandler:  d.SubmitHandler,
		AppearHandler:      d.AppearHandler,
		GetViewHandler:     d.GetViewHandler,
		SearchHandler:      d.SearchHandler,

		LaunchHandler:   s.LaunchHandler,
		LoginHandler:    s.LoginHandler,
		LogoutHandler:   s.LogoutHandler,
		RootHandler:     s.RootHandler,
		SetTitleHandler: s.SetTitleHandler,

		MembershipHandler:      n.MembershipHandler,
		EmailMembershipHandler: n.EmailMembershipHandler,
		ListMembersHandler:     n.ListMembersHandler,
		RefreshNetworkHandler:  n.RefreshHandler,
		AddMemberHandler:       n.AddMemberHandler,
		RemoveMemberHandler:    n.RemoveMemberHandler,
	}
}
