package webagent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/entrhq/serpwalk/pkg/browser"
	"github.com/entrhq/serpwalk/pkg/llm/parser"
)

// Kind names a planner action.
type Kind string

const (
	KindNavigate Kind = "navigate"
	KindClick    Kind = "click"
	KindType     Kind = "type"
	KindScroll   Kind = "scroll"
	KindWait     Kind = "wait"
	KindGoBack   Kind = "go_back"
	KindDone     Kind = "done"
)

const maxWait = 10 * time.Second

// ErrInvalidAction marks a planner reply that is not a usable action.
var ErrInvalidAction = errors.New("invalid action")

// Action is one decoded planner decision.
type Action struct {
	Kind      Kind
	Thought   string
	URL       string
	ID        int
	Text      string
	Submit    bool
	Direction browser.Direction
	Wait      time.Duration
	Report    string
}

func (a Action) String() string {
	switch a.Kind {
	case KindNavigate:
		return fmt.Sprintf("navigate(%s)", a.URL)
	case KindClick:
		return fmt.Sprintf("click(%d)", a.ID)
	case KindType:
		return fmt.Sprintf("type(%d, %q, submit=%t)", a.ID, a.Text, a.Submit)
	case KindScroll:
		return fmt.Sprintf("scroll(%s)", a.Direction)
	case KindWait:
		return fmt.Sprintf("wait(%s)", a.Wait)
	default:
		return string(a.Kind)
	}
}

// parseAction extracts the first JSON object of a planner reply and decodes
// it into an Action.
func parseAction(content string) (Action, error) {
	raw, err := parser.ExtractJSONObject(content)
	if err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	if !gjson.Valid(raw) {
		return Action{}, fmt.Errorf("%w: malformed JSON %s", ErrInvalidAction, raw)
	}

	doc := gjson.Parse(raw)
	name := doc.Get("action")
	if !name.Exists() {
		name = doc.Get("type")
	}
	a := Action{
		Kind:    Kind(strings.ToLower(strings.TrimSpace(name.String()))),
		Thought: doc.Get("thought").String(),
	}

	switch a.Kind {
	case KindNavigate:
		a.URL = strings.TrimSpace(doc.Get("url").String())
		if a.URL == "" {
			return a, fmt.Errorf("%w: navigate needs a url", ErrInvalidAction)
		}
		if !strings.Contains(a.URL, "://") {
			a.URL = "https://" + a.URL
		}
	case KindClick:
		if a.ID, err = elementID(doc); err != nil {
			return a, err
		}
	case KindType:
		if a.ID, err = elementID(doc); err != nil {
			return a, err
		}
		text := doc.Get("text")
		if !text.Exists() {
			return a, fmt.Errorf("%w: type needs text", ErrInvalidAction)
		}
		a.Text = text.String()
		a.Submit = doc.Get("submit").Bool()
	case KindScroll:
		dir := strings.ToLower(doc.Get("direction").String())
		switch browser.Direction(dir) {
		case "", browser.Down:
			a.Direction = browser.Down
		case browser.Up:
			a.Direction = browser.Up
		default:
			return a, fmt.Errorf("%w: unknown scroll direction %q", ErrInvalidAction, dir)
		}
	case KindWait:
		secs := doc.Get("seconds").Float()
		switch {
		case secs <= 0:
			secs = 1
		case secs > maxWait.Seconds():
			secs = maxWait.Seconds()
		}
		a.Wait = time.Duration(secs * float64(time.Second))
	case KindGoBack:
	case KindDone:
		a.Report = strings.TrimSpace(doc.Get("report").String())
		if a.Report == "" {
			a.Report = strings.TrimSpace(doc.Get("result").String())
		}
	case "":
		return a, fmt.Errorf("%w: missing \"action\" field", ErrInvalidAction)
	default:
		return a, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a.Kind)
	}

	return a, nil
}

func elementID(doc gjson.Result) (int, error) {
	id := doc.Get("id")
	if !id.Exists() {
		return 0, fmt.Errorf("%w: %s needs an element id", ErrInvalidAction, doc.Get("action").String())
	}
	n := int(id.Int())
	if n <= 0 {
		return 0, fmt.Errorf("%w: element id %s is not positive", ErrInvalidAction, id.Raw)
	}
	return n, nil
}
