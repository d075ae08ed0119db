package domain

// Agent ids are stable and referenced by conversations and knowledge entries.
const (
	AgentPOPIA    = "popia"
	AgentRental   = "rental"
	AgentConsumer = "consumer"
	AgentGeneral  = "general"
)

// Agent is a specialist persona the user chats with. The roster is fixed at
// build time; there is no runtime registration.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

var agents = []Agent{
	{
		ID:          AgentPOPIA,
		Name:        "POPIA Agent",
		ShortName:   "POPIA",
		Description: "Your guide to the Protection of Personal Information Act.",
		Icon:        "shield",
	},
	{
		ID:          AgentRental,
		Name:        "Rental Law Agent",
		ShortName:   "Rental Law",
		Description: "Assistance with rental housing agreements and disputes.",
		Icon:        "home",
	},
	{
		ID:          AgentConsumer,
		Name:        "Consumer Protection Agent",
		ShortName:   "Consumer Protection",
		Description: "Understand your rights as a consumer.",
		Icon:        "scale",
	},
	{
		ID:          AgentGeneral,
		Name:        "General Legal",
		ShortName:   "General Legal",
		Description: "For general legal queries and triage.",
		Icon:        "book",
	},
}

// Agents returns the full roster in display order.
func Agents() []Agent {
	out := make([]Agent, len(agents))
	copy(out, agents)
	return out
}

// AgentByID resolves an agent id. Unknown ids fall back to the general agent
// so a stale conversation always resumes against a usable persona.
func AgentByID(id string) Agent {
	for _, a := range agents {
		if a.ID == id {
			return a
		}
	}
	return agents[len(agents)-1]
}

// DefaultAgent is the persona a fresh session starts with.
func DefaultAgent() Agent {
	return agents[1]
}
