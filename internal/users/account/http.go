// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/sessiongate/internal/platform/request"
	"github.com/taibuivan/sessiongate/internal/platform/respond"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/platform/validate"
	"github.com/taibuivan/sessiongate/pkg/convert"
	"github.com/taibuivan/sessiongate/pkg/pagination"
	"github.com/taibuivan/sessiongate/pkg/query"
	"github.com/taibuivan/sessiongate/pkg/slice"
)

// # Definitions & Constructors

// Handler implements the admin directory endpoints.
//
// The router is mounted behind gate.Guard.RequireAPI and
// middleware.RequireRole(sec.RoleAdmin); handlers assume both have run.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with directory routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/users", handler.listUsers)
	router.Get("/users/{id}", handler.getUser)
	router.Patch("/users/{id}/role", handler.changeRole)
	router.Get("/roles", handler.listRoles)

	return router
}

// # Request Payloads

type changeRoleRequest struct {
	Role string `json:"role"`
}

// # Handlers

// listUsers handles GET /admin/users?page=&limit=&role=&q=&verified=.
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	params := request.URL.Query()

	// Unknown roles are dropped rather than rejected so stale bookmarks keep working.
	known := slice.Filter(query.Values(request, "role"), func(raw string) bool {
		return sec.UserRole(raw).Valid()
	})

	filter := Filter{
		Roles:  slice.Map(known, func(raw string) sec.UserRole { return sec.UserRole(raw) }),
		Search: strings.TrimSpace(params.Get("q")),
	}

	if raw := params.Get("verified"); raw != "" {
		verified := convert.ToBoolD(raw, false)
		filter.Verified = &verified
	}

	users, meta, err := handler.accountService.ListUsers(request.Context(), filter, pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, meta)
}

// getUser handles GET /admin/users/{id}.
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")
	if err := new(validate.Validator).UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetUser(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// changeRole handles PATCH /admin/users/{id}/role.
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	id := requestutil.Param(request, "id")

	var input changeRoleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, parseErr := sec.ParseRole(input.Role)
	validator := new(validate.Validator).
		UUID("id", id).
		Custom("role", parseErr != nil, "Unknown role")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.ChangeRole(request.Context(), actorID, id, role)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// listRoles handles GET /admin/roles.
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.accountService.ListRoles(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}
