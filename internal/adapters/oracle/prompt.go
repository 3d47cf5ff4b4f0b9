package oracle

// classificationPrompt instructs the vision model to emit a single JSON
// object describing the vehicle. Field names line up with the keys the
// normalizer reads.
const classificationPrompt = `You are a vehicle identification expert. Look at the photo and identify the car.

Respond with a single JSON object and nothing else. Use these fields:

{
  "make": "manufacturer name",
  "model": "model name",
  "generation": "generation or chassis code if known",
  "year_range": "production years, e.g. 1999-2011",
  "year_start": first production year as a number,
  "year_end": last production year as a number,
  "horsepower": peak horsepower as a number,
  "torque_nm": peak torque in newton meters,
  "weight_kg": curb weight in kilograms,
  "zero_to_hundred": 0-100 km/h time in seconds,
  "top_speed_kmh": top speed in km/h,
  "production_numbers": estimated total units produced,
  "drivetrain": "FWD, RWD, AWD or 4WD",
  "vehicle_category": "hypercar, supercar, sports car, muscle car, hot hatch, sedan, suv, truck, classic, track-only or other",
  "prestige_class": "low, medium, high or ultra",
  "engine_aspiration": "naturally aspirated, turbocharged, twin-turbo, supercharged, hybrid or electric",
  "engine": "free text engine description",
  "region": "Europe, Japan, USA or Other",
  "country": "country of origin",
  "confidence": identification confidence between 0 and 1,
  "real_world_confidence": probability this is a real car in the wild between 0 and 1,
  "frame_suspicion": probability the photo is a screen, poster or toy between 0 and 1
}

If a field is unknown, omit it. Do not wrap the JSON in markdown fences.`
