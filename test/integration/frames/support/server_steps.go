package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/MeKo-Tech/frameocr/internal/server"
	"github.com/cucumber/godog"
	"github.com/gorilla/websocket"
)

func (testCtx *TestContext) aRunningFrameServer() error {
	srv, err := server.NewServer(testCtx.ServerConfig, testCtx.Processor)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	testCtx.HTTPServer = httptest.NewServer(mux)
	return nil
}

func (testCtx *TestContext) aRunningFrameServerLimitedToFramesPerMinute(n int) error {
	testCtx.ServerConfig.RateLimit = server.RateLimitConfig{Enabled: true, FramesPerMinute: n}
	return testCtx.aRunningFrameServer()
}

func (testCtx *TestContext) requireServer() error {
	if testCtx.HTTPServer == nil {
		return errors.New("no server is running")
	}
	return nil
}

func (testCtx *TestContext) iPOSTTheFrameTo(path string) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, testCtx.HTTPServer.URL+path, bytes.NewReader(testCtx.FramePNG))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "image/png")
	return testCtx.do(req)
}

func (testCtx *TestContext) iGET(path string) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, testCtx.HTTPServer.URL+path, nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) do(req *http.Request) error {
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPHeaders = resp.Header
	testCtx.LastHTTPResponse = body
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, value string) error {
	if got := testCtx.LastHTTPHeaders.Get(name); got != value {
		return fmt.Errorf("header %s is %q, expected %q", name, got, value)
	}
	return nil
}

func (testCtx *TestContext) theResponseBodyShouldBeNull() error {
	if got := strings.TrimSpace(string(testCtx.LastHTTPResponse)); got != "null" {
		return fmt.Errorf("expected null body, got %s", got)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(string(testCtx.LastHTTPResponse), text) {
		return fmt.Errorf("response does not contain %q: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseDocumentShouldHaveOrientationFrom(applied, original string) error {
	var doc struct {
		Result struct {
			Orientation         string `json:"orientation"`
			OriginalOrientation string `json:"og-orientation"`
		} `json:"result"`
	}
	if err := json.Unmarshal(testCtx.LastHTTPResponse, &doc); err != nil {
		return fmt.Errorf("response is not a document: %w", err)
	}
	if doc.Result.Orientation != applied || doc.Result.OriginalOrientation != original {
		return fmt.Errorf("orientation %q from %q, expected %q from %q",
			doc.Result.Orientation, doc.Result.OriginalOrientation, applied, original)
	}
	return nil
}

func (testCtx *TestContext) iOpenAFrameStream(query string) error {
	if err := testCtx.requireServer(); err != nil {
		return err
	}
	url := "ws" + strings.TrimPrefix(testCtx.HTTPServer.URL, "http") + "/ws/frames" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open frame stream: %w", err)
	}
	testCtx.WS = conn
	return nil
}

func (testCtx *TestContext) iSendTheOrientationControlMessage(o string) error {
	if testCtx.WS == nil {
		return errors.New("no frame stream is open")
	}
	msg := server.ControlMessage{Type: "orientation", Orientation: o}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return testCtx.WS.WriteMessage(websocket.TextMessage, data)
}

func (testCtx *TestContext) iStreamTheFrame() error {
	if testCtx.WS == nil {
		return errors.New("no frame stream is open")
	}
	if err := testCtx.WS.WriteMessage(websocket.BinaryMessage, testCtx.FramePNG); err != nil {
		return err
	}
	return testCtx.readWSMessage()
}

func (testCtx *TestContext) iStreamBytes(payload string) error {
	if testCtx.WS == nil {
		return errors.New("no frame stream is open")
	}
	if err := testCtx.WS.WriteMessage(websocket.BinaryMessage, []byte(payload)); err != nil {
		return err
	}
	return testCtx.readWSMessage()
}

func (testCtx *TestContext) readWSMessage() error {
	_ = testCtx.WS.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := testCtx.WS.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read stream message: %w", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("invalid stream message %s: %w", data, err)
	}
	testCtx.LastWSMessage = msg
	return nil
}

func (testCtx *TestContext) theStreamShouldAnswerWith(msgType string) error {
	if testCtx.LastWSMessage == nil {
		return errors.New("no stream message received")
	}
	if got := testCtx.LastWSMessage["type"]; got != msgType {
		return fmt.Errorf("stream answered %v, expected %s: %v", got, msgType, testCtx.LastWSMessage)
	}
	if id, _ := testCtx.LastWSMessage["frame_id"].(string); id == "" {
		return errors.New("stream message carries no frame_id")
	}
	return nil
}

func (testCtx *TestContext) theStreamErrorTypeShouldBe(errType string) error {
	if got := testCtx.LastWSMessage["error_type"]; got != errType {
		return fmt.Errorf("error_type is %v, expected %s", got, errType)
	}
	return nil
}

func (testCtx *TestContext) theStreamResultShouldBeNull() error {
	if result, ok := testCtx.LastWSMessage["result"]; !ok || result != nil {
		return fmt.Errorf("expected null result, got %v", testCtx.LastWSMessage["result"])
	}
	return nil
}

func (testCtx *TestContext) theStreamResultShouldHaveOrientationFrom(applied, original string) error {
	outer, ok := testCtx.LastWSMessage["result"].(map[string]any)
	if !ok {
		return fmt.Errorf("stream result is not a document: %v", testCtx.LastWSMessage["result"])
	}
	result, ok := outer["result"].(map[string]any)
	if !ok {
		return errors.New("stream document has no result")
	}
	if result["orientation"] != applied || result["og-orientation"] != original {
		return fmt.Errorf("orientation %v from %v, expected %s from %s",
			result["orientation"], result["og-orientation"], applied, original)
	}
	return nil
}

// RegisterServerSteps registers the host runtime steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a running frame server$`, testCtx.aRunningFrameServer)
	sc.Step(`^a running frame server limited to (\d+) frames? per minute$`, testCtx.aRunningFrameServerLimitedToFramesPerMinute)
	sc.Step(`^I POST the frame to "([^"]*)"$`, testCtx.iPOSTTheFrameTo)
	sc.Step(`^I GET "([^"]*)"$`, testCtx.iGET)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response body should be null$`, testCtx.theResponseBodyShouldBeNull)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response document orientation should be "([^"]*)" from "([^"]*)"$`,
		testCtx.theResponseDocumentShouldHaveOrientationFrom)
	sc.Step(`^I open a frame stream$`, func() error { return testCtx.iOpenAFrameStream("") })
	sc.Step(`^I open a frame stream with "([^"]*)"$`, testCtx.iOpenAFrameStream)
	sc.Step(`^I send the orientation control message "([^"]*)"$`, testCtx.iSendTheOrientationControlMessage)
	sc.Step(`^I stream the frame$`, testCtx.iStreamTheFrame)
	sc.Step(`^I stream the bytes "([^"]*)"$`, testCtx.iStreamBytes)
	sc.Step(`^the stream should answer with "([^"]*)"$`, testCtx.theStreamShouldAnswerWith)
	sc.Step(`^the stream error type should be "([^"]*)"$`, testCtx.theStreamErrorTypeShouldBe)
	sc.Step(`^the stream result should be null$`, testCtx.theStreamResultShouldBeNull)
	sc.Step(`^the stream result orientation should be "([^"]*)" from "([^"]*)"$`,
		testCtx.theStreamResultShouldHaveOrientationFrom)
}
