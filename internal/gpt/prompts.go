package gpt

// promptClassify is the system prompt for intent classification. %s is
// replaced by the comma-separated list of known animal names.
const promptClassify = `You classify requests to a voice assistant that knows animal sounds.

Classify the user's input into exactly ONE intent and respond with a JSON object and nothing else:
{"intent": "<intent>", "animal": "<animal or empty>"}

Intents:
- "what_does_it_say": the user wants to know what sound an animal makes ("what's a cow's noise?").
- "imitate_animal": the user wants to hear the animal ("let's hear a dog", "bark for me").
- "help": the user asks what the assistant can do.
- "quit": the user wants to stop or leave.
- "unknown": anything else.

Rules:
- "animal" is the animal the user named, in lower case and singular, or implied by a verb ("bark" means dog, "meow" means cat).
- Prefer one of these known animals when it fits: %s.
- If the animal is not in the list, still return it; do not invent one.
- No markdown, no code fences, no explanation.`
