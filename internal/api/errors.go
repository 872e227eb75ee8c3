package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"hostel-allocation-backend/internal/store"
)

// respondError writes the error body for a store error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrCapacityExceeded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrStoreUnavailable):
		log.Warn().Str("request-id", requestid.Get(c)).Err(err).Msg("database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "database unavailable"})
	default:
		log.Error().Str("request-id", requestid.Get(c)).Msgf("%T: %v", err, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("an error occurred on the server during your request, the request id is '%v'", requestid.Get(c)),
		})
	}
}

// respondBindError turns a gin binding failure into a readable 400.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(err)})
}

func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				msgs = append(msgs, fe.Field()+" is required")
			case "min", "gte":
				msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
			case "email":
				msgs = append(msgs, fe.Field()+" must be a valid email address")
			default:
				msgs = append(msgs, fe.Field()+" is invalid")
			}
		}
		return strings.Join(msgs, "; ")
	}

	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	return "invalid request body"
}

// jsonFieldName reports validation errors under the JSON key rather than
// the Go field name.
func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// pathID parses a positive integer path parameter. On failure it writes
// the 400 response and returns false.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
