package tools

import (
	"context"
	"fmt"
	"strings"
)

// WeatherTool answers get_weather requests from a fixed set of canned city
// reports. An unlisted city yields an error Result, not a turn failure.
type WeatherTool struct{}

var weatherReports = map[string]string{
	"new york":      "The weather in New York is sunny with a temperature of 25 degrees Celsius (77 degrees Fahrenheit).",
	"london":        "The weather in London is overcast with a temperature of 14 degrees Celsius (57 degrees Fahrenheit).",
	"tokyo":         "The weather in Tokyo is partly cloudy with a temperature of 22 degrees Celsius (72 degrees Fahrenheit).",
	"san francisco": "The weather in San Francisco is foggy with a temperature of 16 degrees Celsius (61 degrees Fahrenheit).",
}

func (WeatherTool) Name() string { return "get_weather" }

func (WeatherTool) Definition() Definition {
	return Definition{
		Name:        "get_weather",
		Description: "Retrieves the current weather report for a specified city.",
		Parameters: map[string]Param{
			"city": {Type: "string", Description: "The name of the city for which to retrieve the weather report."},
		},
		Required: []string{"city"},
	}
}

func (WeatherTool) Execute(_ context.Context, args map[string]string) Result {
	city := strings.TrimSpace(args["city"])
	report, ok := weatherReports[strings.ToLower(city)]
	if !ok {
		return ErrorResult(fmt.Sprintf("Weather information for '%s' is not available.", city))
	}
	return Result{Status: StatusSuccess, Payload: map[string]string{"report": report}}
}
