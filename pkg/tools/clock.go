package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// timeLayout mirrors strftime "%Y-%m-%d %H:%M:%S %Z%z".
const timeLayout = "2006-01-02 15:04:05 MST-0700"

// ClockTool answers get_current_time requests for cities with a known IANA
// zone. The clock is injectable for tests; a nil now falls back to time.Now.
type ClockTool struct {
	Now func() time.Time
}

var cityZones = map[string]string{
	"new york":      "America/New_York",
	"london":        "Europe/London",
	"tokyo":         "Asia/Tokyo",
	"san francisco": "America/Los_Angeles",
}

func (ClockTool) Name() string { return "get_current_time" }

func (ClockTool) Definition() Definition {
	return Definition{
		Name:        "get_current_time",
		Description: "Returns the current time in a specified city.",
		Parameters: map[string]Param{
			"city": {Type: "string", Description: "The name of the city for which to retrieve the current time."},
		},
		Required: []string{"city"},
	}
}

func (c ClockTool) Execute(_ context.Context, args map[string]string) Result {
	city := strings.TrimSpace(args["city"])
	zone, ok := cityZones[strings.ToLower(city)]
	if !ok {
		return ErrorResult(fmt.Sprintf("Sorry, I don't have timezone information for %s.", city))
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return ErrorResult(fmt.Sprintf("timezone database has no entry for %s", zone))
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	report := fmt.Sprintf("The current time in %s is %s", city, now().In(loc).Format(timeLayout))
	return Result{Status: StatusSuccess, Payload: map[string]string{"report": report}}
}

// Builtins returns the registry preloaded with the stock tool set.
func Builtins() *Registry {
	return NewRegistry(WeatherTool{}, ClockTool{})
}
