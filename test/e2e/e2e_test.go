//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
)

const defaultBaseURL = "http://localhost:8080/api/v1"

var (
	baseURL string
	paperID string
	userID  string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userID = fmt.Sprintf("e2e_user_%d", time.Now().UnixNano())

	os.Exit(m.Run())
}

// envelope mirrors the API response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, method, path string, body any, wantStatus int) json.RawMessage {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d. Body: %s", method, path, resp.StatusCode, wantStatus, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: bad envelope: %v. Body: %s", method, path, err, raw)
	}
	return env.Data
}

func Test01_CreateCommunityPaper(t *testing.T) {
	data := call(t, http.MethodPost, "/papers", map[string]any{
		"name":   "E2E Paper",
		"userId": userID,
		"questions": []map[string]any{
			{"text": "capital of France?", "options": []string{"Berlin", "Paris", "Rome", "Oslo"}, "answerIndex": 1},
			{"text": "2+2?", "options": []string{"3", "4", "5", "6"}, "answerIndex": 1},
			{"text": "largest planet?", "options": []string{"Mars", "Venus", "Jupiter", "Pluto"}, "answerIndex": 2},
		},
	}, http.StatusCreated)

	var info struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &info); err != nil || info.ID == "" {
		t.Fatalf("bad create response: %s", data)
	}
	paperID = info.ID
}

func Test02_PaperAppearsInRegistry(t *testing.T) {
	data := call(t, http.MethodGet, "/papers", nil, http.StatusOK)

	var list struct {
		Papers []struct {
			ID string `json:"id"`
		} `json:"papers"`
	}
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("bad list response: %s", data)
	}
	for _, p := range list.Papers {
		if p.ID == paperID {
			return
		}
	}
	t.Fatalf("paper %s not in registry", paperID)
}

type attemptView struct {
	Key   string `json:"key"`
	State struct {
		Status       string `json:"status"`
		CurrentIndex int    `json:"currentIndex"`
		Selected     []int  `json:"selected"`
		TimeLeftSec  int    `json:"timeLeftSec"`
	} `json:"state"`
}

var attemptKey string

func Test03_StartAttempt(t *testing.T) {
	data := call(t, http.MethodPost, "/attempts", map[string]any{
		"userId":  userID,
		"paperId": paperID,
		"mode":    "medium",
	}, http.StatusCreated)

	var view attemptView
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("bad attempt view: %s", data)
	}
	if view.State.Status != "in_progress" {
		t.Fatalf("status = %q", view.State.Status)
	}
	attemptKey = url.PathEscape(view.Key)
}

func Test04_AnswerAndNavigate(t *testing.T) {
	call(t, http.MethodPost, "/attempts/"+attemptKey+"/answer", map[string]any{"optionIndex": 1}, http.StatusOK)
	call(t, http.MethodPost, "/attempts/"+attemptKey+"/navigate", map[string]any{"op": "next"}, http.StatusOK)
	call(t, http.MethodPost, "/attempts/"+attemptKey+"/answer", map[string]any{"optionIndex": 0}, http.StatusOK)
	call(t, http.MethodPost, "/attempts/"+attemptKey+"/bookmark", nil, http.StatusOK)

	data := call(t, http.MethodGet, "/attempts/"+attemptKey+"/state", nil, http.StatusOK)
	var view attemptView
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("bad state view: %s", data)
	}
	if view.State.Selected[0] != 1 || view.State.Selected[1] != 0 {
		t.Fatalf("answers not recorded: %v", view.State.Selected)
	}
}

func Test05_Search(t *testing.T) {
	data := call(t, http.MethodPost, "/attempts/"+attemptKey+"/search", map[string]any{"query": "planet"}, http.StatusOK)
	var st struct {
		Matches      []int `json:"matches"`
		CurrentIndex int   `json:"currentIndex"`
	}
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("bad search state: %s", data)
	}
	if len(st.Matches) != 1 || st.CurrentIndex != 2 {
		t.Fatalf("search state: %+v", st)
	}
}

func Test06_SubmitAndScore(t *testing.T) {
	data := call(t, http.MethodPost, "/attempts/"+attemptKey+"/submit", nil, http.StatusOK)
	var result struct {
		Result struct {
			Correct int     `json:"correct"`
			Wrong   int     `json:"wrong"`
			Score   float64 `json:"score"`
			Total   int     `json:"total"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("bad result: %s", data)
	}
	// q0 answered 1 (correct), q1 answered 0 (wrong), q2 unanswered.
	if result.Result.Correct != 1 || result.Result.Wrong != 1 || result.Result.Total != 3 {
		t.Fatalf("breakdown: %+v", result.Result)
	}
	if result.Result.Score != 0.75 {
		t.Fatalf("score = %v, want 0.75", result.Result.Score)
	}
}

func Test07_ScoreListedAfterFlush(t *testing.T) {
	// The flush worker batches for up to 2 seconds; poll a little.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		data := call(t, http.MethodGet, "/scores?userId="+userID, nil, http.StatusOK)
		var list struct {
			Scores []struct {
				ID    int64   `json:"id"`
				Paper string  `json:"paper"`
				Score float64 `json:"score"`
			} `json:"scores"`
		}
		if err := json.Unmarshal(data, &list); err != nil {
			t.Fatalf("bad score list: %s", data)
		}
		if len(list.Scores) == 1 {
			if list.Scores[0].Paper != paperID || list.Scores[0].Score != 0.75 {
				t.Fatalf("score record: %+v", list.Scores[0])
			}
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatal("score record never appeared")
}

func Test08_AttemptGoneAfterFinish(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, baseURL+"/attempts/"+attemptKey+"/state", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
