package assess

import (
	"context"
	"fmt"

	"github.com/learnercloudtech/Karunya-Kripa/models"
)

const baseInstruction = `You are an AI assistant for an animal rescue organization. Your task is to analyze a text description of an incident and assign a priority level. Respond ONLY with a valid JSON object containing two keys: "priority" and "justification". Do not include any other text, explanations, or markdown formatting. The priority must be one of: "High", "Medium", "Low", "Info", or "Manual Review". The justification should be a single, brief sentence.`

func textPrompt(category models.ReportType, description string) string {
	var guidance string
	switch category {
	case models.ReportEmergency:
		guidance = `The report is for a "Medical Emergency". Assess urgency based on keywords like "bleeding", "unconscious", "unable to move", "seizures", "hit by vehicle". Severe injury implies "High" priority.`
	case models.ReportAbuse:
		guidance = `The report is for "Abuse or Neglect". Intentional cruelty warrants "High" priority. Signs of long-term neglect (very skinny, matted fur) should be "Medium".`
	default:
		guidance = `This is a routine request or informational report. Assign "Low" or "Info" priority.`
	}
	return fmt.Sprintf("%s %s The user's report is: %q", baseInstruction, guidance, description)
}

func visionPrompt(description string) string {
	return fmt.Sprintf(`Analyze this image of a street animal, considering the user's description: %q. Based on visible signs of injury, distress, or illness, assess the medical urgency. Respond with ONLY a JSON object with two keys: "priority" (must be "High", "Medium", or "Low") and "justification" (a brief, one-sentence explanation).`, description)
}

func refinePrompt(region, raw string) string {
	return fmt.Sprintf(`Given the user-provided location in %s: %q. Refine it into a precise, searchable address like "Landmark, Area, City". Remove ambiguous terms. If it's already a good address, return it. Respond with only the refined address.`, region, raw)
}

// Assess returns the fixed result.
func (s Static) Assess(_ context.Context, _ Request) (Result, error) {
	return s.Result, nil
}

// Refine returns raw unchanged.
func (s Static) Refine(_ context.Context, raw string) (string, error) {
	return raw, nil
}
