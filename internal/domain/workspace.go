package domain

// Workspace is the immutable view of the dashboard handed to each resolution
// and dispatch call.
type Workspace struct {
	View                 View           `json:"view"`
	SelectedProperty     *Property      `json:"selected_property,omitempty"`
	SelectedProfessional *Professional  `json:"selected_professional,omitempty"`
	Properties           []Property     `json:"properties"`
	Professionals        []Professional `json:"professionals"`
}

func (w Workspace) PropertyByID(id string) (*Property, bool) {
	if id == "" {
		return nil, false
	}
	for i := range w.Properties {
		if w.Properties[i].ID == id {
			p := w.Properties[i]
			return &p, true
		}
	}
	return nil, false
}

func (w Workspace) ProfessionalByID(id string) (*Professional, bool) {
	if id == "" {
		return nil, false
	}
	for i := range w.Professionals {
		if w.Professionals[i].ID == id {
			p := w.Professionals[i]
			return &p, true
		}
	}
	return nil, false
}
