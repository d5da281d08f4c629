package checker

import "fmt"

const systemPrompt = `You are an expert electrical engineer and PCB designer with extensive experience in analyzing KiCad netlists.
You are meticulous and detail-oriented, ensuring that every aspect of the netlist is thoroughly examined for potential issues and improvements.
Respond only with JSON matching the requested findings structure.`

const userPromptTemplate = `Given the following KiCad netlist, identify potential issues and suggest improvements.
Focus on the schematic only, ignore everything related to PCB layout, including footprint assignments.
Respond with a JSON object holding a "findings" array, where each finding includes:
- id: a unique identifier for the finding (string).
- level: the severity level (one of: Fatal, Major, Minor, Best Practice, Nice To Have).
- description: a brief description of the finding.
- recommendation: a suggested action to address the finding.
- reference: the component or net the finding refers to.

<netlist>
%s
</netlist>`

// buildPrompt renders the user prompt for one netlist.
func buildPrompt(netlistText string) string {
	return fmt.Sprintf(userPromptTemplate, netlistText)
}
