package kafka

import (
	"encoding/json"
	"testing"
)

func TestEncode(t *testing.T) {
	msgs, err := Encode([]Event{
		{Key: "miss", Value: map[string]int{"periods": 3}, Headers: map[string]string{"run_id": "r1"}},
		{Key: "lady", Value: []float64{0.5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || string(msgs[0].Key) != "miss" {
		t.Fatalf("messages = %+v", msgs)
	}
	var v map[string]int
	if err := json.Unmarshal(msgs[0].Value, &v); err != nil || v["periods"] != 3 {
		t.Errorf("value = %s (%v)", msgs[0].Value, err)
	}
	if len(msgs[0].Headers) != 1 || msgs[0].Headers[0].Key != "run_id" || string(msgs[0].Headers[0].Value) != "r1" {
		t.Errorf("headers = %+v", msgs[0].Headers)
	}
	if len(msgs[1].Headers) != 0 {
		t.Errorf("unexpected headers = %+v", msgs[1].Headers)
	}
}

func TestEncodeRejectsUnmarshalable(t *testing.T) {
	if _, err := Encode([]Event{{Key: "bad", Value: make(chan int)}}); err == nil {
		t.Error("expected a marshal error")
	}
}
