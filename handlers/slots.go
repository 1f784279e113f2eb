package handlers

import (
	"net/http"
	"time"

	"labbook/services/slots"

	"github.com/gin-gonic/gin"
)

type SlotHandler struct {
	now func() time.Time
}

func NewSlotHandler(now func() time.Time) *SlotHandler {
	if now == nil {
		now = time.Now
	}
	return &SlotHandler{now: now}
}

// GetDatesHandler lists today and the next six days in the service time zone.
func (h *SlotHandler) GetDatesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dates": slots.GenerateDates(h.now())})
}

// GetTimesHandler lists the start times offered on ?date=YYYY-MM-DD.
func (h *SlotHandler) GetTimesHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		respondError(c, slots.ErrNoDateSelected)
		return
	}
	times, err := slots.TimesFor(date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "times": times})
}
