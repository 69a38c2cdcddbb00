package normalize

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/skylift/region-advisor/internal/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// skuPayload covers the fields the upstream SKU listings expose that we
// care about. Unknown fields are ignored by the decoder.
type skuPayload struct {
	Name         string               `json:"name"`
	ResourceType string               `json:"resourceType"`
	Tier         string               `json:"tier"`
	Size         string               `json:"size"`
	Kind         string               `json:"kind"`
	Locations    []string             `json:"locations"`
	Restrictions []restrictionPayload `json:"restrictions"`
}

type restrictionPayload struct {
	Type       string `json:"type"`
	ReasonCode string `json:"reasonCode"`
}

type valueEnvelope struct {
	Value []skuPayload `json:"value"`
}

// decodeSkuPayloads accepts the two shapes the upstream API produces: a
// bare array, or an envelope {"value": [...]}. Empty input means the
// provider has no SKU endpoint and decodes to an empty slice. Anything
// else is a normalization ambiguity for the caller to downgrade.
func decodeSkuPayloads(raw []byte) ([]skuPayload, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	it := jsonAPI.BorrowIterator(raw)
	defer jsonAPI.ReturnIterator(it)

	switch it.WhatIsNext() {
	case jsoniter.ArrayValue:
		var bare []skuPayload
		if err := jsonAPI.Unmarshal(raw, &bare); err != nil {
			return nil, errors.Wrap(err, errors.CodeNormalizationAmbiguity, "sku array failed to decode")
		}
		return bare, nil
	case jsoniter.ObjectValue:
		var env valueEnvelope
		if err := jsonAPI.Unmarshal(raw, &env); err != nil {
			return nil, errors.Wrap(err, errors.CodeNormalizationAmbiguity, "sku envelope failed to decode")
		}
		if env.Value == nil {
			return nil, errors.New(errors.CodeNormalizationAmbiguity, "sku envelope carries no value array")
		}
		return env.Value, nil
	case jsoniter.NilValue:
		return nil, nil
	default:
		return nil, errors.New(errors.CodeNormalizationAmbiguity, "unrecognized sku response shape")
	}
}

func (p skuPayload) restrictionCodes() []string {
	if len(p.Restrictions) == 0 {
		return nil
	}
	codes := make([]string, 0, len(p.Restrictions))
	for _, r := range p.Restrictions {
		code := r.ReasonCode
		if code == "" {
			code = r.Type
		}
		if code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}
