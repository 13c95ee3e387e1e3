package gemini

import (
	"testing"

	"github.com/vango-go/voicegate/pkg/engine"
	"github.com/vango-go/voicegate/pkg/tools"
)

func TestBuildContents_TextTurn(t *testing.T) {
	req := &engine.Request{Utterance: engine.Utterance{Text: "what time is it in new york?"}}

	contents := buildContents(req)
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("role = %q, want user", contents[0].Role)
	}
	if contents[0].Parts[0].Text != req.Utterance.Text {
		t.Errorf("text = %q", contents[0].Parts[0].Text)
	}
}

func TestBuildContents_AudioTurn(t *testing.T) {
	req := &engine.Request{Utterance: engine.Utterance{Audio: make([]byte, 320)}}

	contents := buildContents(req)
	blob := contents[0].Parts[0].InlineData
	if blob == nil {
		t.Fatal("audio utterance should become InlineData")
	}
	if blob.MIMEType != "audio/wav" {
		t.Errorf("mime = %q, want audio/wav", blob.MIMEType)
	}
	if len(blob.Data) != 44+320 {
		t.Errorf("blob size = %d, want %d", len(blob.Data), 44+320)
	}
}

func TestBuildContents_ToolExchange(t *testing.T) {
	req := &engine.Request{
		Utterance: engine.Utterance{Text: "weather in tokyo"},
		Exchange: &engine.ToolExchange{
			Call: engine.ToolCall{Name: "get_weather", Arguments: map[string]string{"city": "tokyo"}},
			Result: tools.Result{
				Status:  tools.StatusSuccess,
				Payload: map[string]string{"report": "partly cloudy"},
			},
		},
	}

	contents := buildContents(req)
	if len(contents) != 3 {
		t.Fatalf("got %d contents, want 3", len(contents))
	}

	call := contents[1].Parts[0].FunctionCall
	if call == nil || call.Name != "get_weather" {
		t.Fatalf("second content should carry the function call, got %+v", contents[1].Parts[0])
	}
	if call.Args["city"] != "tokyo" {
		t.Errorf("call args = %v", call.Args)
	}

	resp := contents[2].Parts[0].FunctionResponse
	if resp == nil || resp.Name != "get_weather" {
		t.Fatalf("third content should carry the function response, got %+v", contents[2].Parts[0])
	}
	if resp.Response["status"] != "success" || resp.Response["report"] != "partly cloudy" {
		t.Errorf("response = %v", resp.Response)
	}
}

func TestBuildConfig_Declarations(t *testing.T) {
	config := buildConfig(tools.Builtins().Catalog())

	if config.SystemInstruction == nil {
		t.Fatal("system instruction missing")
	}
	if len(config.Tools) != 1 {
		t.Fatalf("got %d tool groups, want 1", len(config.Tools))
	}
	decls := config.Tools[0].FunctionDeclarations
	if len(decls) != 2 {
		t.Fatalf("got %d declarations, want 2", len(decls))
	}
	for _, d := range decls {
		if d.Parameters == nil || d.Parameters.Properties["city"] == nil {
			t.Errorf("declaration %q missing city property", d.Name)
		}
	}
}

func TestResultResponse_Error(t *testing.T) {
	resp := resultResponse(tools.ErrorResult("Weather information for 'Atlantis' is not available."))
	if resp["status"] != "error" {
		t.Errorf("status = %v, want error", resp["status"])
	}
	if resp["error_message"] == "" {
		t.Error("error_message missing")
	}
}

func TestStringArgs(t *testing.T) {
	got := stringArgs(map[string]any{"city": "new york", "count": 3.0})
	if got["city"] != "new york" {
		t.Errorf("city = %q", got["city"])
	}
	if got["count"] != "3" {
		t.Errorf("count = %q, want %q", got["count"], "3")
	}
}
