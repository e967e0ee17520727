package inference

// detectionPrompt is sent after the image in every request.
const detectionPrompt = `You are a font detection expert. Analyze the provided image, which is likely a YouTube thumbnail.
Identify all distinct fonts visible in the image.
For each font you identify, you MUST also extract the exact text snippet from the image that uses this font.
Provide the font's likely name, a style description, a similar free font suggestion, a confidence score, your reasoning, and the detected text itself.
Respond only with the JSON array defined in the schema. If no text or fonts are found, return an empty array.`
