package api

import (
	"encoding/json"
	"net/http"

	"github.com/azurenoops/platform-engineering-copilot-sub000/internal/netcalc"
)

type validateNetworkRequest struct {
	VNetName     string           `json:"vnet_name,omitempty"`
	AddressSpace string           `json:"address_space"`
	Subnets      []netcalc.Subnet `json:"subnets"`
}

type validateNetworkResponse struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

type nextSubnetRequest struct {
	AddressSpace string   `json:"address_space"`
	Existing     []string `json:"existing"`
	PrefixLength int      `json:"prefix_length"`
}

type nextSubnetResponse struct {
	CIDR  *string `json:"cidr"`
	Found bool    `json:"found"`
}

// validateNetwork handles POST /api/network/validate. It backs the console's
// network form: every finding is returned, not just the first.
func (h *Handler) validateNetwork(w http.ResponseWriter, r *http.Request) {
	var req validateNetworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp := validateNetworkResponse{Errors: []string{}}

	if req.VNetName != "" && !netcalc.IsValidVNetName(req.VNetName) {
		resp.Errors = append(resp.Errors, "invalid virtual network name: "+req.VNetName)
	}

	result := netcalc.ValidateSubnets(req.Subnets, req.AddressSpace)
	resp.Errors = append(resp.Errors, result.Errors...)
	resp.Valid = len(resp.Errors) == 0

	for _, s := range req.Subnets {
		if s.Purpose == "" {
			continue
		}
		if !netcalc.IsSubnetSizeSufficient(s.AddressPrefix, s.Purpose) {
			resp.Warnings = append(resp.Warnings, "subnet "+s.Name+" may be too small for "+s.Purpose+": "+netcalc.SizeRecommendation(s.Purpose))
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// nextSubnet handles POST /api/network/next-subnet
func (h *Handler) nextSubnet(w http.ResponseWriter, r *http.Request) {
	var req nextSubnetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp := nextSubnetResponse{}
	if cidr, ok := netcalc.NextSubnetCIDR(req.AddressSpace, req.Existing, req.PrefixLength); ok {
		resp.CIDR = &cidr
		resp.Found = true
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// getSizeRecommendation handles GET /api/network/recommendations?purpose=
func (h *Handler) getSizeRecommendation(w http.ResponseWriter, r *http.Request) {
	purpose := r.URL.Query().Get("purpose")
	if purpose == "" {
		h.writeError(w, http.StatusBadRequest, "purpose required")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"purpose":        purpose,
		"recommendation": netcalc.SizeRecommendation(purpose),
	})
}
