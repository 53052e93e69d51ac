package voice

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seu-repo/rentmap-voice/internal/domain"
)

type minProperty struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Tenant  string `json:"tenant"`
	Status  string `json:"status"`
}

type minProfessional struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Profession string `json:"profession"`
}

type selectedItem struct {
	Type    domain.ItemType `json:"type"`
	ID      string          `json:"id"`
	Label   string          `json:"label"`
	Details string          `json:"details,omitempty"`
}

type promptContext struct {
	CurrentView   domain.View       `json:"currentView"`
	SelectedItem  *selectedItem     `json:"selectedItem"`
	Properties    []minProperty     `json:"properties"`
	Professionals []minProfessional `json:"professionals"`
}

// buildContext reduces the workspace to the fields the model needs so the
// prompt does not grow with the size of each record.
func buildContext(ws domain.Workspace) promptContext {
	pc := promptContext{
		CurrentView:   ws.View,
		Properties:    make([]minProperty, 0, len(ws.Properties)),
		Professionals: make([]minProfessional, 0, len(ws.Professionals)),
	}
	if pc.CurrentView == "" {
		pc.CurrentView = domain.ViewMap
	}
	for _, p := range ws.Properties {
		pc.Properties = append(pc.Properties, minProperty{
			ID:      p.ID,
			Address: p.Address,
			Tenant:  p.TenantName,
			Status:  string(p.Status),
		})
	}
	for _, p := range ws.Professionals {
		pc.Professionals = append(pc.Professionals, minProfessional{
			ID:         p.ID,
			Name:       p.Name,
			Profession: p.Profession,
		})
	}
	switch {
	case ws.SelectedProperty != nil:
		pc.SelectedItem = &selectedItem{
			Type:    domain.ItemProperty,
			ID:      ws.SelectedProperty.ID,
			Label:   ws.SelectedProperty.Address,
			Details: ws.SelectedProperty.TenantName,
		}
	case ws.SelectedProfessional != nil:
		pc.SelectedItem = &selectedItem{
			Type:    domain.ItemProfessional,
			ID:      ws.SelectedProfessional.ID,
			Label:   ws.SelectedProfessional.Name,
			Details: ws.SelectedProfessional.Profession,
		}
	}
	return pc
}

func buildPrompt(transcript string, ws domain.Workspace) (string, error) {
	ctxJSON, err := json.Marshal(buildContext(ws))
	if err != nil {
		return "", fmt.Errorf("marshal prompt context: %w", err)
	}
	var b strings.Builder
	b.WriteString("CONTEXTO ACTUAL:\n")
	b.Write(ctxJSON)
	b.WriteString("\n\nEL USUARIO DIJO: \"")
	b.WriteString(transcript)
	b.WriteString("\"")
	return b.String(), nil
}

func joinIntents() string {
	names := make([]string, len(domain.Intents))
	for i, in := range domain.Intents {
		names[i] = string(in)
	}
	return strings.Join(names, ", ")
}

func joinActions() string {
	names := make([]string, len(domain.ActionTypes))
	for i, a := range domain.ActionTypes {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}

func joinViews() string {
	names := make([]string, 0, len(domain.Views)+2)
	for _, v := range domain.Views {
		names = append(names, string(v))
	}
	names = append(names, string(domain.ModalAddProperty), string(domain.ModalAddProfessional))
	return strings.Join(names, ", ")
}

// SystemInstruction is the fixed contract given to every provider.
var SystemInstruction = fmt.Sprintf(`Sos el asistente de voz de un tablero de administración de propiedades en alquiler.
Respondé SIEMPRE en español rioplatense, breve y natural, porque tu respuesta se lee en voz alta.

Clasificá lo que dijo el usuario en UNA intención: %s.
Para UPDATE_PROPERTY indicá data.actionType: %s.

Devolvé SOLO un objeto JSON con estas claves:
- intent (string)
- responseText (string): lo que vas a decir en voz alta
- requiresFollowUp (boolean): true solo si te falta información imprescindible y hacés una pregunta
- data (objeto, opcional) con los campos que correspondan:
  targetView (%s), address, query, itemType (PROPERTY o PROFESSIONAL), itemId,
  propertyId, actionType, newRent (número), newTenant, professionalId, professionalName,
  taskDescription, noteContent, amount (número), description, contactName, phoneNumber.

Reglas:
- Usá los ids del CONTEXTO; nunca inventes ids. Si el usuario habla de "esta propiedad" usá selectedItem.
- REGISTER_EXPENSE necesita amount y description; si falta alguno, preguntá (requiresFollowUp=true).
- ASSIGN_PROFESSIONAL: professionalName tal como lo dijo el usuario y taskDescription con el trabajo.
- CREATE_NEW: address con la dirección de la nueva propiedad.
- EXPLAIN_SCREEN: explicá en pocas palabras qué muestra currentView.
- STOP_LISTENING: cuando el usuario se despide o pide que dejes de escuchar.
- Si no entendés, usá UNKNOWN y pedí que repita.`, joinIntents(), joinActions(), joinViews())
