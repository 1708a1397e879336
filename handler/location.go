package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/ctxutil"
	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/resp"
	"github.com/ncobase/passport/service"
	"github.com/ncobase/passport/structs"
)

// LocationHandler exposes the per-user location cache endpoints.
type LocationHandler struct {
	locations *service.LocationService
}

// NewLocationHandler creates the location handler.
func NewLocationHandler(locations *service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

type favoriteRequest struct {
	Place string `json:"place" validate:"required,max=255"`
}

func currentUserID(c *gin.Context) (int64, bool) {
	identity := ctxutil.GetIdentity(c)
	if !identity.Authenticated() {
		resp.Fail(c.Writer, c.Request, resp.UnAuthorized(ecode.Text(ecode.Unauthorized)))
		return 0, false
	}
	return identity.User.ID, true
}

// Set handles PUT /locations.
func (h *LocationHandler) Set(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req locationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	loc := &structs.UserLocation{Latitude: req.Latitude, Longitude: req.Longitude}
	if err := h.locations.SetLocation(c.Request.Context(), userID, loc); err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Location updated successfully", loc)
}

// Get handles GET /locations.
func (h *LocationHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	loc, err := h.locations.GetLocation(c.Request.Context(), userID)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Location retrieved successfully", loc)
}

// AddFavorite handles POST /locations/favorites.
func (h *LocationHandler) AddFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req favoriteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	places, err := h.locations.AddFavorite(c.Request.Context(), userID, req.Place)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Favorite added successfully", places)
}

// RemoveFavorite handles DELETE /locations/favorites.
func (h *LocationHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req favoriteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	places, err := h.locations.RemoveFavorite(c.Request.Context(), userID, req.Place)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Favorite removed successfully", places)
}

// Favorites handles GET /locations/favorites.
func (h *LocationHandler) Favorites(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	places, err := h.locations.Favorites(c.Request.Context(), userID)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Favorites retrieved successfully", places)
}

// RecordVisit handles POST /locations/visits/:place.
func (h *LocationHandler) RecordVisit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	place := c.Param("place")
	count, err := h.locations.RecordVisit(c.Request.Context(), userID, place)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Visit recorded successfully", gin.H{"place": place, "visits": count})
}
