// README: Trip handlers for listing/search, posting and PATCH actions.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/http/middleware"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/matching"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

type TripHandler struct {
	trips    *trip.Service
	matching *matching.Service
	log      logger.Logger
}

func NewTripHandler(trips *trip.Service, matchingSvc *matching.Service, log logger.Logger) *TripHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &TripHandler{trips: trips, matching: matchingSvc, log: log}
}

type coordinatesBody struct {
	Lat flexNumber `json:"lat"`
	Lng flexNumber `json:"lng"`
}

type placeBody struct {
	Address     string           `json:"address"`
	Coordinates *coordinatesBody `json:"coordinates"`
}

func (p *placeBody) toPlace() trip.Place {
	if p == nil {
		return trip.Place{}
	}
	out := trip.Place{Address: p.Address}
	if c := p.Coordinates; c != nil && c.Lat.set && c.Lng.set {
		pt := types.Point{Lat: c.Lat.value, Lng: c.Lng.value}
		if pt.Valid() {
			out.Coordinates = &pt
		}
	}
	return out
}

func (p *placeBody) toPlacePtr() *trip.Place {
	if p == nil {
		return nil
	}
	pl := p.toPlace()
	return &pl
}

type driverBody struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

type vehicleBody struct {
	VehicleID    string     `json:"vehicle_id"`
	LicensePlate string     `json:"license_plate"`
	Model        string     `json:"model"`
	Capacity     flexNumber `json:"capacity"`
}

type createTripReq struct {
	DriverID     string       `json:"driver_id"`
	Start        *placeBody   `json:"start"`
	Destination  *placeBody   `json:"destination"`
	Time         string       `json:"time"`
	Seats        flexNumber   `json:"seats"`
	Fare         flexNumber   `json:"fare"`
	ExtraMinutes flexNumber   `json:"extra_minutes"`
	Driver       *driverBody  `json:"driver"`
	Vehicle      *vehicleBody `json:"vehicle"`
}

type patchTripReq struct {
	TripID      string     `json:"trip_id"`
	Action      string     `json:"action"`
	UserID      string     `json:"user_id"`
	Origin      *placeBody `json:"origin"`
	Destination *placeBody `json:"destination"`
}

// List serves GET /api/trips. Query modes, in priority order: ids, role=passenger,
// search=true, then the caller's own trips as driver.
func (h *TripHandler) List(c *gin.Context) {
	uid := middleware.CallerUID(c)
	ctx := c.Request.Context()

	if raw, ok := c.GetQuery("ids"); ok && raw != "" {
		var ids []string
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		trips, err := h.trips.ListByIDs(ctx, ids)
		if err != nil {
			writeServiceError(c, h.log, err)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"trips": trips})
		return
	}

	if strings.EqualFold(c.Query("role"), "passenger") {
		trips, err := h.trips.ListForPassenger(ctx, uid)
		if err != nil {
			writeServiceError(c, h.log, err)
			return
		}
		writeJSON(c, http.StatusOK, gin.H{"trips": trips})
		return
	}

	if c.Query("search") == "true" {
		h.search(c, uid)
		return
	}

	trips, err := h.trips.ListByDriver(ctx, uid)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"trips": trips})
}

func (h *TripHandler) search(c *gin.Context, uid string) {
	fromLat, ok1 := queryNumber(c, "fromLat")
	fromLng, ok2 := queryNumber(c, "fromLng")
	toLat, ok3 := queryNumber(c, "toLat")
	toLng, ok4 := queryNumber(c, "toLng")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		writeError(c, http.StatusBadRequest, "fromLat, fromLng, toLat and toLng are required for search")
		return
	}

	debug := strings.EqualFold(c.Query("debug"), "true")
	res, err := h.matching.Search(c.Request.Context(), matching.Request{
		From:           types.Point{Lat: fromLat, Lng: fromLng},
		To:             types.Point{Lat: toLat, Lng: toLng},
		Date:           strings.TrimSpace(c.Query("date")),
		Time:           strings.TrimSpace(c.Query("time")),
		ViewerIsDriver: strings.EqualFold(c.Query("viewerRole"), "driver"),
		RequesterUID:   uid,
		Debug:          debug,
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	if debug {
		writeJSON(c, http.StatusOK, gin.H{"trips": res.Trips, "debug": res.Debug})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"trips": res.Trips})
}

// Create serves POST /api/trips.
func (h *TripHandler) Create(c *gin.Context) {
	var req createTripReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	cmd := trip.CreateCommand{
		DriverUID:    middleware.CallerUID(c),
		DriverEmail:  middleware.CallerEmail(c),
		DriverID:     strings.TrimSpace(req.DriverID),
		Start:        req.Start.toPlace(),
		Destination:  req.Destination.toPlace(),
		Time:         req.Time,
		Seats:        req.Seats.ptr(),
		Fare:         req.Fare.ptr(),
		ExtraMinutes: req.ExtraMinutes.ptr(),
	}
	if d := req.Driver; d != nil {
		cmd.Driver = &trip.DriverInput{UID: d.UID, Name: d.Name, Email: d.Email, Photo: d.Photo}
	}
	if v := req.Vehicle; v != nil {
		cmd.Vehicle = &trip.VehicleInput{
			VehicleID:    v.VehicleID,
			LicensePlate: v.LicensePlate,
			Model:        v.Model,
			Capacity:     v.Capacity.ptr(),
		}
	}

	id, err := h.trips.Create(c.Request.Context(), cmd)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusCreated, gin.H{"message": "Posted trip", "trip_id": id})
}

// Patch serves PATCH /api/trips for every waitlist/passenger action.
func (h *TripHandler) Patch(c *gin.Context) {
	var req patchTripReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.trips.Dispatch(c.Request.Context(), trip.PatchCommand{
		TripID:      strings.TrimSpace(req.TripID),
		Action:      req.Action,
		CallerUID:   middleware.CallerUID(c),
		UserID:      strings.TrimSpace(req.UserID),
		Origin:      req.Origin.toPlacePtr(),
		Destination: req.Destination.toPlacePtr(),
	})
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	writeJSON(c, http.StatusOK, actionResponse(res))
}

func actionResponse(res *trip.ActionResult) gin.H {
	body := gin.H{"message": res.Message}
	switch res.Action {
	case trip.ActionApply:
		body["waitlist"] = res.Waitlist
	case trip.ActionAccept:
		body["waitlist"] = res.Waitlist
		body["passenger_list"] = res.PassengerList
		body["status"] = res.Status
	case trip.ActionCancel:
		body["status"] = res.Status
	case trip.ActionRemovePassenger, trip.ActionCancelPassenger:
		body["waitlist"] = res.Waitlist
		body["passenger_list"] = res.PassengerList
		body["removed_from_waitlist"] = res.RemovedFromWaitlist
		body["removed_from_passenger_list"] = res.RemovedFromPassengerList
		body["status"] = res.Status
	}
	return body
}
