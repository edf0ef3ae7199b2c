// Package risk classifies civic complaints into low, medium, or high risk
// intensity using a hosted language model.
//
// Analyzer renders RiskPrompt around the complaint text, sends it as a single
// user message, and decodes the JSON reply into a Classification. Classify has
// no error return: provider failures, unparseable output, and completer panics
// all become a degraded Classification (medium, confidence 0, reason
// "Error during analysis: ...") with Outcome set to OutcomeDegraded and the
// failure's services.Kind recorded in ErrorKind.
//
// Provider builds one Analyzer per process on first use and hands the same
// instance (or the same construction error) to every caller.
package risk
