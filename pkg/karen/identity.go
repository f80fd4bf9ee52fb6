package karen

import (
	"encoding/json"
	"fmt"
	"io"
)

// IdentityDocument maps a patient's internal document ID to the
// (Iden_Codigo, Iden_Sede) pair used as the join key across every export.
// Iden_Codigo repeats across sites; only the pair is unique.
type IdentityDocument struct {
	ID             ObjectID      `json:"_id"`
	Identification *IdentityKeys `json:"Identificacion"`
}

type IdentityKeys struct {
	PatientCode Int `json:"Iden_Codigo"`
	SiteCode    Int `json:"Iden_Sede"`
}

// DecodeIdentities parses the supplementary identity-mapping export.
func DecodeIdentities(r io.Reader) ([]IdentityDocument, error) {
	var docs []IdentityDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&docs); err != nil {
		return nil, err
	}
	for i, doc := range docs {
		if doc.ID.Hex == "" {
			return nil, fmt.Errorf("identity record %d has no _id", i)
		}
	}
	return docs, nil
}
