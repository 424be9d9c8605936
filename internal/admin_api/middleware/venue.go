package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// VenueIDParam is the route parameter naming the venue a request is scoped to
const VenueIDParam = "venue_id"

// RequireVenueAccess rejects callers whose session does not grant the venue in the path.
// Must run after Auth.
func RequireVenueAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetSession(c).CanAccess(c.Param(VenueIDParam)) {
			abortWithError(c, http.StatusForbidden, "FORBIDDEN", "No access to this venue")
			return
		}
		c.Next()
	}
}

// CanAccessVenue checks a venue that is only known after loading a record
func CanAccessVenue(c *gin.Context, venueID string) bool {
	return GetSession(c).CanAccess(venueID)
}
