package httpserver

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
)

func FuzzSubmitRatingPayload(f *testing.F) {
	seeds := []string{
		`{"templateId":"t1","userHash":"u1","rating":5}`,
		`{"templateId":"t1","userHash":"u1","rating":0}`,
		`{"rating":3}`,
		`{"templateId":"","userHash":"","rating":99,"comment":"x"}`,
		`not json`,
		``,
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	validate := validator.New()
	f.Fuzz(func(t *testing.T, raw string) {
		var req submitRatingRequest
		if err := json.NewDecoder(strings.NewReader(raw)).Decode(&req); err != nil {
			return
		}
		req.TemplateID = strings.TrimSpace(req.TemplateID)
		req.UserHash = strings.TrimSpace(req.UserHash)

		err := validate.Struct(req)
		if err != nil {
			if msg := validationMessage(err); msg == "" {
				t.Fatalf("validation message should never be empty")
			}
			return
		}
		if req.TemplateID == "" || req.UserHash == "" {
			t.Fatalf("blank identity passed validation: %+v", req)
		}
		if req.Rating < 1 || req.Rating > 5 {
			t.Fatalf("out-of-range rating passed validation: %d", req.Rating)
		}
	})
}
